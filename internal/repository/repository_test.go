package repository

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-recon/internal/classpath"
	"route-recon/internal/testutil/classgen"
)

type countingResolver struct {
	classpath.Memory
	finds atomic.Int32
}

func (c *countingResolver) Find(name string) ([]byte, error) {
	c.finds.Add(1)
	return c.Memory.Find(name)
}

type recordingObserver struct {
	mu     sync.Mutex
	loaded []string
}

func (o *recordingObserver) ClassLoaded(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loaded = append(o.loaded, name)
}

func memory(builders ...*classgen.ClassBuilder) classpath.Memory {
	m := classpath.Memory{}
	for _, b := range builders {
		m[b.InternalName()] = b.Bytes()
	}
	return m
}

func TestResolveMemoizes(t *testing.T) {
	resolver := &countingResolver{Memory: memory(classgen.New("com.example.UserController"))}
	observer := &recordingObserver{}
	repo := New(resolver).WithObserver(observer)

	first, err := repo.Resolve("com.example.UserController")
	require.NoError(t, err)
	second, err := repo.Resolve("com/example/UserController")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), resolver.finds.Load())
	assert.Equal(t, []string{"com/example/UserController"}, observer.loaded)
	assert.Equal(t, 1, repo.Len())
}

func TestResolveConcurrent(t *testing.T) {
	resolver := &countingResolver{Memory: memory(classgen.New("com.example.Shared"))}
	repo := New(resolver)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Resolve("com.example.Shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), resolver.finds.Load())
}

func TestResolveTypeNotFound(t *testing.T) {
	repo := New(classpath.Memory{})

	_, err := repo.Resolve("com.example.Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeNotFound))

	var notFound *TypeNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "com/example/Missing", notFound.TypeName)
	assert.Contains(t, err.Error(), "com.example.Missing")
}

func TestResolveMalformedClass(t *testing.T) {
	repo := New(classpath.Memory{"com/example/Broken": []byte{0xCA, 0xFE}})

	_, err := repo.Resolve("com.example.Broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTypeNotFound))
}

func TestHierarchy(t *testing.T) {
	repo := New(memory(
		classgen.New("com.example.UserController").Super("com.example.CrudController"),
		classgen.New("com.example.CrudController").Super("com.example.BaseController"),
		classgen.New("com.example.BaseController"),
	))

	jc, err := repo.Resolve("com.example.UserController")
	require.NoError(t, err)

	chain, err := repo.Hierarchy(jc)
	require.NoError(t, err)

	var names []string
	for _, c := range chain {
		names = append(names, c.ClassName())
	}
	assert.Equal(t, []string{"com.example.UserController", "com.example.CrudController", "com.example.BaseController"}, names)
}

func TestHierarchyMissingSuperclass(t *testing.T) {
	repo := New(memory(classgen.New("com.example.UserController").Super("com.example.Gone")))

	jc, err := repo.Resolve("com.example.UserController")
	require.NoError(t, err)

	_, err = repo.Hierarchy(jc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeNotFound))
}

func TestHierarchyCycle(t *testing.T) {
	repo := New(memory(
		classgen.New("com.example.A").Super("com.example.B"),
		classgen.New("com.example.B").Super("com.example.A"),
	))

	jc, err := repo.Resolve("com.example.A")
	require.NoError(t, err)

	_, err = repo.Hierarchy(jc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicHierarchy))
}
