package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"route-recon/internal/model"
)

var verbColors = map[string]*color.Color{
	"GET":    color.New(color.FgGreen, color.Bold),
	"POST":   color.New(color.FgYellow, color.Bold),
	"PUT":    color.New(color.FgBlue, color.Bold),
	"PATCH":  color.New(color.FgCyan, color.Bold),
	"DELETE": color.New(color.FgRed, color.Bold),
}

var (
	faint      = color.New(color.Faint)
	deprecated = color.New(color.FgMagenta)
)

// PrintOperations writes one colored line per operation:
//
//	GET    /users/{id}         UserController.getUser -> User
func PrintOperations(w io.Writer, ops []*model.Operation) {
	width := 0
	for _, op := range ops {
		if len(op.Pattern) > width {
			width = len(op.Pattern)
		}
	}

	for _, op := range ops {
		verb := verbColors[op.Verb]
		if verb == nil {
			verb = color.New(color.Bold)
		}

		line := fmt.Sprintf("%s %-*s  %s",
			verb.Sprintf("%-7s", op.Verb),
			width, op.Pattern,
			faint.Sprintf("%s.%s -> %s", model.SimpleName(op.Controller), op.MethodName, responseName(op)),
		)
		if op.Deprecated {
			line += " " + deprecated.Sprint("(deprecated)")
		}
		fmt.Fprintln(w, line)
	}
}

func responseName(op *model.Operation) string {
	names := make([]string, len(op.Response.Types))
	for i, t := range op.Response.Types {
		names[i] = model.SimpleName(t)
	}
	return strings.Join(names, " | ")
}
