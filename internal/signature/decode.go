package signature

import "fmt"

// ContinuationType is the trailing parameter type of a Kotlin suspend function
const ContinuationType = "kotlin.coroutines.Continuation"

// DecodeType returns the type of a field or local variable, preferring the
// generic signature over the erased descriptor
func DecodeType(descriptor, signature string) (*Type, error) {
	input := descriptor
	if signature != "" {
		input = signature
	}
	t, err := ParseType(input)
	if err != nil {
		return nil, fmt.Errorf("failed to decode type: %w", err)
	}
	return t, nil
}

// ReturnType returns the canonical response type of a method. For a suspend
// function with a generic signature the result is the continuation's type
// argument with its wildcard removed; the nominal return type (Object) is
// ignored in that case.
func ReturnType(descriptor, signature string) (string, error) {
	desc, err := ParseMethod(descriptor)
	if err != nil {
		return "", fmt.Errorf("failed to decode method descriptor: %w", err)
	}
	if signature == "" {
		return desc.Return.String(), nil
	}

	sig, err := ParseMethod(signature)
	if err != nil {
		return "", fmt.Errorf("failed to decode method signature: %w", err)
	}

	if n := len(desc.Params); n > 0 && desc.Params[n-1].Is(ContinuationType) && len(sig.Params) > 0 {
		last := sig.Params[len(sig.Params)-1]
		if last.Is(ContinuationType) && len(last.Args) == 1 {
			return last.Args[0].Unwrap().String(), nil
		}
	}
	return sig.Return.String(), nil
}
