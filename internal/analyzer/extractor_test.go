package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-recon/internal/classpath"
	"route-recon/internal/model"
	"route-recon/internal/repository"
	"route-recon/internal/testutil/classgen"
)

const (
	joobyPath      = "io.jooby.annotations.Path"
	joobyGET       = "io.jooby.annotations.GET"
	joobyPOST      = "io.jooby.annotations.POST"
	joobyPathParam = "io.jooby.annotations.PathParam"
	joobyQuery     = "io.jooby.annotations.QueryParam"
	joobyForm      = "io.jooby.annotations.FormParam"
	jetbrainsNull  = "org.jetbrains.annotations.Nullable"

	stringDesc = "Ljava/lang/String;"
)

var ann = classgen.Ann

func paths(values ...string) []string {
	return values
}

func newRepository(builders ...*classgen.ClassBuilder) *repository.Repository {
	mem := classpath.Memory{}
	for _, b := range builders {
		mem[b.InternalName()] = b.Bytes()
	}
	return repository.New(mem)
}

func extract(t *testing.T, opts Options, mounts []model.Mount, builders ...*classgen.ClassBuilder) []*model.Operation {
	t.Helper()
	ops, err := NewExtractor(newRepository(builders...), opts).Extract(context.Background(), mounts)
	require.NoError(t, err)
	return ops
}

func mount(controller string) model.Mount {
	return model.Mount{ControllerType: controller}
}

func userController() *classgen.ClassBuilder {
	c := classgen.New("com.example.UserController").
		Annotate(ann(joobyPath, "value", paths("/users")))
	c.Method("getUser", "(Ljava/lang/String;)Lcom/example/User;").
		Annotate(ann(joobyGET, "value", paths("/{id}"))).
		Arg("id", stringDesc, classgen.WithAnnotations(ann(joobyPathParam)))
	return c
}

func TestExtract_PathParameter(t *testing.T) {
	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.UserController")}, userController())
	require.Len(t, ops, 1)

	op := ops[0]
	assert.Equal(t, "GET", op.Verb)
	assert.Equal(t, "/users/{id}", op.Pattern)
	assert.Equal(t, []string{"id"}, op.PathKeys)
	assert.Equal(t, []model.Parameter{{Name: "id", Type: "java.lang.String", In: model.SourcePath, Required: true}}, op.Parameters)
	assert.Nil(t, op.RequestBody)
	assert.Equal(t, []string{"com.example.User"}, op.Response.Types)
	assert.Equal(t, "getUser", op.OperationID)
	assert.Equal(t, "com.example.UserController", op.Controller)
	assert.Equal(t, "(Ljava/lang/String;)Lcom/example/User;", op.Descriptor)
	assert.False(t, op.Deprecated)
}

func TestExtract_MountPrefix(t *testing.T) {
	ops := extract(t, DefaultOptions(),
		[]model.Mount{{ControllerType: "com.example.UserController", PathPrefix: "/api/"}},
		userController())
	require.Len(t, ops, 1)
	assert.Equal(t, "/api/users/{id}", ops[0].Pattern)
}

func TestExtract_FormFields(t *testing.T) {
	c := classgen.New("com.example.FormController")
	c.Method("submit", "(Ljava/lang/String;I)V").
		Annotate(ann(joobyPOST, "value", paths("/submit"))).
		Arg("name", stringDesc, classgen.WithAnnotations(ann(joobyForm))).
		Arg("age", "I", classgen.WithAnnotations(ann(joobyForm)))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.FormController")}, c)
	require.Len(t, ops, 1)

	op := ops[0]
	assert.Equal(t, "POST", op.Verb)
	assert.Empty(t, op.Parameters)
	require.NotNil(t, op.RequestBody)
	assert.Equal(t, model.ContentTypeMultipart, op.RequestBody.ContentType)
	assert.True(t, op.RequestBody.Required)
	assert.Empty(t, op.RequestBody.Type)

	form := op.RequestBody.Schema
	require.NotNil(t, form)
	assert.Equal(t, "object", form.Type)
	assert.Equal(t, []string{"name", "age"}, form.Required)

	name, ok := form.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "string", name.Type)
	age, ok := form.Lookup("age")
	require.True(t, ok)
	assert.Equal(t, "integer", age.Type)
	assert.Equal(t, "int32", age.Format)
	assert.Equal(t, []string{"void"}, op.Response.Types)
}

func TestExtract_FormBean(t *testing.T) {
	c := classgen.New("com.example.FormController")
	c.Method("create", "(Lcom/example/User;)V").
		Annotate(ann(joobyPOST)).
		Arg("user", "Lcom/example/User;", classgen.WithAnnotations(ann(joobyForm)))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.FormController")}, c)
	require.Len(t, ops, 1)
	require.NotNil(t, ops[0].RequestBody)
	assert.Equal(t, "com.example.User", ops[0].RequestBody.Type)
	assert.Equal(t, model.ContentTypeMultipart, ops[0].RequestBody.ContentType)
	assert.Nil(t, ops[0].RequestBody.Schema)
	assert.Equal(t, "/", ops[0].Pattern)
}

func TestExtract_FormEnumField(t *testing.T) {
	status := classgen.New("com.example.Status").Super("java.lang.Enum")
	c := classgen.New("com.example.FormController")
	c.Method("submit", "(Ljava/lang/String;Lcom/example/Status;)V").
		Annotate(ann(joobyPOST)).
		Arg("name", stringDesc, classgen.WithAnnotations(ann(joobyForm))).
		Arg("status", "Lcom/example/Status;", classgen.WithAnnotations(ann(joobyForm)))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.FormController")}, c, status)
	require.Len(t, ops, 1)

	body := ops[0].RequestBody
	require.NotNil(t, body)
	assert.Empty(t, body.Type)
	assert.Equal(t, model.ContentTypeMultipart, body.ContentType)
	require.NotNil(t, body.Schema)

	var names []string
	for _, p := range body.Schema.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"name", "status"}, names)
	assert.Equal(t, []string{"name", "status"}, body.Schema.Required)

	field, ok := body.Schema.Lookup("status")
	require.True(t, ok)
	assert.Equal(t, "string", field.Type)
	assert.Empty(t, field.JavaType)
}

func TestExtract_JSONBody(t *testing.T) {
	c := classgen.New("com.example.UserController")
	c.Method("save", "(Ljava/util/List;)V").
		Annotate(ann(joobyPOST, "value", paths("/batch"))).
		Arg("users", "Ljava/util/List;", classgen.WithSignature("Ljava/util/List<Lcom/example/User;>;"))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.UserController")}, c)
	require.Len(t, ops, 1)
	require.NotNil(t, ops[0].RequestBody)
	assert.Equal(t, &model.RequestBody{
		Type:        "java.util.List<com.example.User>",
		Required:    true,
		ContentType: model.ContentTypeJSON,
	}, ops[0].RequestBody)
}

func TestExtract_BarePathMeansGET(t *testing.T) {
	c := classgen.New("com.example.HealthController")
	c.Method("health", "()Ljava/lang/String;").
		Annotate(ann(joobyPath, "value", paths("/health")))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.HealthController")}, c)
	require.Len(t, ops, 1)
	assert.Equal(t, "GET", ops[0].Verb)
	assert.Equal(t, "/health", ops[0].Pattern)
	assert.Equal(t, []string{"java.lang.String"}, ops[0].Response.Types)
}

func TestExtract_VerbAndPathCrossProduct(t *testing.T) {
	c := classgen.New("com.example.ItemController")
	c.Method("upsert", "()V").
		Annotate(
			ann(joobyGET),
			ann(joobyPOST),
			ann(joobyPath, "value", paths("/a", "/b")),
		)

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.ItemController")}, c)
	require.Len(t, ops, 4)

	var routes []string
	for _, op := range ops {
		routes = append(routes, op.Verb+" "+op.Pattern)
	}
	assert.Equal(t, []string{"GET /a", "GET /b", "POST /a", "POST /b"}, routes)
	assert.Equal(t, ops[0].Response, ops[3].Response)
}

func TestExtract_JaxRS(t *testing.T) {
	c := classgen.New("com.example.ItemResource").
		Annotate(ann("javax.ws.rs.Path", "value", "/v1"))
	c.Method("item", "(J)Lcom/example/Item;").
		Annotate(ann("javax.ws.rs.GET"), ann("javax.ws.rs.Path", "value", "/items/{id: [0-9]+}")).
		Arg("id", "J", classgen.WithAnnotations(ann("javax.ws.rs.PathParam", "value", "id")))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.ItemResource")}, c)
	require.Len(t, ops, 1)
	assert.Equal(t, "/v1/items/{id: [0-9]+}", ops[0].Pattern)
	assert.Equal(t, []string{"id"}, ops[0].PathKeys)
	assert.Equal(t, "long", ops[0].Parameters[0].Type)
}

func TestExtract_OverrideMostDerivedWins(t *testing.T) {
	base := classgen.New("com.example.CrudController").
		Annotate(ann(joobyPath, "value", paths("/crud")))
	base.Method("first", "()V").Annotate(ann(joobyGET, "value", paths("/first")))
	base.Method("list", "()Ljava/util/List;").Annotate(ann(joobyGET, "value", paths("/list")))
	base.Method("helper", "()V")

	derived := classgen.New("com.example.UserController").
		Super("com.example.CrudController").
		Annotate(ann(joobyPath, "value", paths("/users")))
	derived.Method("list", "()Ljava/util/ArrayList;").Annotate(ann(joobyGET, "value", paths("/all")))
	derived.Method("last", "()V").Annotate(ann(joobyGET, "value", paths("/last")))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.UserController")}, base, derived)

	var routes []string
	for _, op := range ops {
		routes = append(routes, op.MethodName+" "+op.Pattern)
	}
	assert.Equal(t, []string{"first /users/first", "list /users/all", "last /users/last"}, routes)
	assert.Equal(t, []string{"java.util.ArrayList"}, ops[1].Response.Types)
}

func TestExtract_ClassPrefixInherited(t *testing.T) {
	base := classgen.New("com.example.Base").
		Annotate(ann(joobyPath, "value", paths("/base")))
	derived := classgen.New("com.example.Derived").Super("com.example.Base")
	derived.Method("ping", "()V").Annotate(ann(joobyGET, "value", paths("/ping")))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.Derived")}, base, derived)
	require.Len(t, ops, 1)
	assert.Equal(t, "/base/ping", ops[0].Pattern)
}

func TestExtract_SuspendFunction(t *testing.T) {
	c := classgen.New("com.example.CoroutineController")
	c.Method("find", "(Ljava/lang/String;Lkotlin/coroutines/Continuation;)Ljava/lang/Object;").
		Signature("(Ljava/lang/String;Lkotlin/coroutines/Continuation<-Lcom/example/User;>;)Ljava/lang/Object;").
		Annotate(ann(joobyGET, "value", paths("/find"))).
		Arg("q", stringDesc, classgen.WithAnnotations(ann(joobyQuery))).
		Arg("continuation", "Lkotlin/coroutines/Continuation;",
			classgen.WithSignature("Lkotlin/coroutines/Continuation<-Lcom/example/User;>;"),
			classgen.LocalName("$continuation"))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.CoroutineController")}, c)
	require.Len(t, ops, 1)
	assert.Equal(t, []string{"com.example.User"}, ops[0].Response.Types)
	require.Len(t, ops[0].Parameters, 1)
	assert.Equal(t, "q", ops[0].Parameters[0].Name)
	assert.Nil(t, ops[0].RequestBody)
}

func TestExtract_FrameworkArgumentsSkipped(t *testing.T) {
	c := classgen.New("com.example.SessionController")
	c.Method("me", "(Lio/jooby/Context;Ljava/util/Optional;Lio/jooby/Session;Ljava/lang/String;)V").
		Annotate(ann(joobyGET)).
		Arg("ctx", "Lio/jooby/Context;").
		Arg("maybe", "Ljava/util/Optional;", classgen.WithSignature("Ljava/util/Optional<Lio/jooby/Session;>;")).
		Arg("session", "Lio/jooby/Session;").
		Arg("attr", stringDesc, classgen.WithAnnotations(ann("io.jooby.annotations.ContextParam")))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.SessionController")}, c)
	require.Len(t, ops, 1)
	assert.Empty(t, ops[0].Parameters)
	assert.Nil(t, ops[0].RequestBody)
}

func TestExtract_BindingNames(t *testing.T) {
	c := classgen.New("com.example.SearchController")
	c.Method("search", "(Ljava/lang/String;Ljava/lang/String;Ljava/lang/String;)V").
		Annotate(ann(joobyGET)).
		Arg("term", stringDesc, classgen.WithAnnotations(ann(joobyQuery, "value", "q"))).
		Arg("token", stringDesc, classgen.WithAnnotations(ann("io.jooby.annotations.HeaderParam"), ann("javax.inject.Named", "value", "X-Token"))).
		Arg("sid", stringDesc, classgen.WithAnnotations(ann("io.jooby.annotations.CookieParam")))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.SearchController")}, c)
	require.Len(t, ops, 1)
	assert.Equal(t, []model.Parameter{
		{Name: "q", Type: "java.lang.String", In: model.SourceQuery, Required: true},
		{Name: "X-Token", Type: "java.lang.String", In: model.SourceHeader, Required: true},
		{Name: "sid", Type: "java.lang.String", In: model.SourceCookie, Required: true},
	}, ops[0].Parameters)
}

func TestExtract_Nullability(t *testing.T) {
	// javaStyle has no class-retained parameter annotations at all
	javaStyle := func() *classgen.ClassBuilder {
		c := classgen.New("com.example.JavaController")
		c.Method("list", "(Ljava/lang/String;I)V").
			Annotate(ann(joobyGET)).
			Arg("filter", stringDesc, classgen.WithAnnotations(ann(joobyQuery))).
			Arg("page", "I", classgen.WithAnnotations(ann(joobyQuery)))
		return c
	}
	// kotlinStyle records nullability for every parameter
	kotlinStyle := func() *classgen.ClassBuilder {
		c := classgen.New("com.example.KotlinController")
		c.Method("list", "(Ljava/lang/String;Ljava/lang/String;)V").
			Annotate(ann(joobyGET)).
			Arg("filter", stringDesc, classgen.WithAnnotations(ann(joobyQuery)), classgen.WithInvisible(ann(jetbrainsNull))).
			Arg("sort", stringDesc, classgen.WithAnnotations(ann(joobyQuery)))
		return c
	}

	required := func(ops []*model.Operation) []bool {
		var flags []bool
		for _, p := range ops[0].Parameters {
			flags = append(flags, p.Required)
		}
		return flags
	}

	// Missing metadata means required unless the nullable policy is chosen
	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.JavaController")}, javaStyle())
	assert.Equal(t, []bool{true, true}, required(ops))

	ops = extract(t, Options{NullableByDefault: true}, []model.Mount{mount("com.example.JavaController")}, javaStyle())
	assert.Equal(t, []bool{false, true}, required(ops), "primitives stay required")

	for _, nullable := range []bool{false, true} {
		ops = extract(t, Options{NullableByDefault: nullable}, []model.Mount{mount("com.example.KotlinController")}, kotlinStyle())
		assert.Equal(t, []bool{false, true}, required(ops))
	}

	// A nullable marker on a primitive is ignored
	marked := classgen.New("com.example.PageController")
	marked.Method("list", "(I)V").
		Annotate(ann(joobyGET)).
		Arg("page", "I", classgen.WithAnnotations(ann(joobyQuery)), classgen.WithInvisible(ann(jetbrainsNull)))
	for _, nullable := range []bool{false, true} {
		ops = extract(t, Options{NullableByDefault: nullable}, []model.Mount{mount("com.example.PageController")}, marked)
		assert.Equal(t, []bool{true}, required(ops))
	}
}

func TestExtract_PathAlwaysRequired(t *testing.T) {
	c := classgen.New("com.example.UserController")
	c.Method("get", "(Ljava/lang/String;)V").
		Annotate(ann(joobyGET, "value", paths("/{id}"))).
		Arg("id", stringDesc, classgen.WithAnnotations(ann(joobyPathParam)), classgen.WithInvisible(ann(jetbrainsNull)))

	ops := extract(t, Options{NullableByDefault: true}, []model.Mount{mount("com.example.UserController")}, c)
	require.Len(t, ops, 1)
	assert.True(t, ops[0].Parameters[0].Required)
}

func TestExtract_MetadataMarkers(t *testing.T) {
	c := classgen.New("com.example.LegacyController").
		Annotate(ann("io.jooby.annotations.Consumes", "value", paths("application/xml")))
	c.Method("old", "()V").
		Annotate(ann(joobyGET, "value", paths("/old"), "produces", paths("application/json")), ann("java.lang.Deprecated"))

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.LegacyController")}, c)
	require.Len(t, ops, 1)
	assert.True(t, ops[0].Deprecated)
	assert.Equal(t, []string{"application/json"}, ops[0].Produces)
	assert.Equal(t, []string{"application/xml"}, ops[0].Consumes)
}

func TestExtract_NoRouterMethods(t *testing.T) {
	c := classgen.New("com.example.Plain")
	c.Method("helper", "()V")
	// Without locals, classifying this method would fail
	c.Method("other", "(Ljava/lang/String;)V").Arg("s", stringDesc).NoLocals()

	ops := extract(t, DefaultOptions(), []model.Mount{mount("com.example.Plain")}, c)
	assert.Empty(t, ops)
}

func TestExtract_TypeNotFound(t *testing.T) {
	_, err := NewExtractor(newRepository(userController()), DefaultOptions()).
		Extract(context.Background(), []model.Mount{mount("com.example.UserController"), mount("com.example.Missing")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrTypeNotFound))
	assert.Contains(t, err.Error(), "com.example.Missing")
}

func TestExtract_ParameterTypeNotFound(t *testing.T) {
	c := classgen.New("com.example.Stripped")
	c.Method("get", "(Ljava/lang/String;)V").
		Annotate(ann(joobyGET)).
		Arg("id", stringDesc).
		NoLocals()

	_, err := NewExtractor(newRepository(c), DefaultOptions()).
		Extract(context.Background(), []model.Mount{mount("com.example.Stripped")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParameterTypeNotFound))

	var notFound *ParameterTypeNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "com.example.Stripped", notFound.Class)
	assert.Equal(t, "get", notFound.Method)
	assert.Equal(t, "id", notFound.Parameter)
}

func TestExtract_ExcludedController(t *testing.T) {
	opts := DefaultOptions()
	opts.ExcludeController = func(name string) bool { return name == "UserController" }

	ops := extract(t, opts, []model.Mount{mount("com.example.UserController")}, userController())
	assert.Empty(t, ops)
}

type recordingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *recordingObserver) MountProcessed(m model.Mount, ops []*model.Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[m.ControllerType] = len(ops)
}

func TestExtract_ParallelKeepsMountOrder(t *testing.T) {
	var (
		builders []*classgen.ClassBuilder
		mounts   []model.Mount
	)
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("com.example.Controller%02d", i)
		c := classgen.New(name)
		c.Method("index", "()V").Annotate(ann(joobyGET, "value", paths(fmt.Sprintf("/c%02d", i))))
		builders = append(builders, c)
		mounts = append(mounts, mount(name))
	}

	sequential := extract(t, DefaultOptions(), mounts, builders...)

	observer := &recordingObserver{counts: map[string]int{}}
	parallel, err := NewExtractor(newRepository(builders...), Options{Parallelism: 4}).
		WithObserver(observer).
		Extract(context.Background(), mounts)
	require.NoError(t, err)

	require.Len(t, parallel, 12)
	assert.Equal(t, sequential, parallel)
	for i, op := range parallel {
		assert.Equal(t, fmt.Sprintf("/c%02d", i), op.Pattern)
	}
	assert.Len(t, observer.counts, 12)
}

func TestExtract_Deterministic(t *testing.T) {
	mounts := []model.Mount{mount("com.example.UserController")}
	first := extract(t, DefaultOptions(), mounts, userController())
	second := extract(t, DefaultOptions(), mounts, userController())
	assert.Equal(t, first, second)
}

func TestExtract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(newRepository(userController()), DefaultOptions()).
		Extract(ctx, []model.Mount{mount("com.example.UserController")})
	assert.ErrorIs(t, err, context.Canceled)
}
