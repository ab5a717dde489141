package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge"
)

func postContext() *Context {
	return &Context{
		AppName:     "blog",
		Singular:    "post",
		Plural:      "posts",
		Classified:  "Post",
		Underscored: "post",
		Attributes: []appforge.Attribute{
			{Name: "title", Kind: appforge.KindText},
			{Name: "published", Kind: appforge.KindBoolean},
		},
	}
}

// TestScenarioPost verifies the full file set for a Post resource with
// title:text and published:boolean: listing, detail, creation, and edit
// views, class name Post, plural route segment posts.
func TestScenarioPost(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	ctx := postContext()

	views, err := r.Render(Views, ctx)
	require.NoError(t, err)
	for _, path := range []string{
		"app/views/posts/index.html.erb",
		"app/views/posts/show.html.erb",
		"app/views/posts/new.html.erb",
		"app/views/posts/edit.html.erb",
		"app/views/posts/_form.html.erb",
	} {
		assert.Contains(t, views, path)
	}

	model, err := r.Render(Model, ctx)
	require.NoError(t, err)
	require.Contains(t, model, "app/models/post.rb")
	assert.Contains(t, model["app/models/post.rb"], "class Post < ApplicationRecord")
	assert.Contains(t, model["app/models/post.rb"], "validates :title, presence: true")
	assert.NotContains(t, model["app/models/post.rb"], "validates :published")

	controller, err := r.Render(Controller, ctx)
	require.NoError(t, err)
	require.Contains(t, controller, "app/controllers/posts_controller.rb")
	assert.Contains(t, controller["app/controllers/posts_controller.rb"], "class PostsController")
	assert.Contains(t, controller["app/controllers/posts_controller.rb"], "permit(:title, :published)")

	route, err := r.RenderBody(Route, ctx)
	require.NoError(t, err)
	assert.Equal(t, "resources :posts", route)
}

// TestAttributeRepetition verifies that a form with N attributes renders
// exactly N field fragments, each carrying its own name and kind.
func TestAttributeRepetition(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	ctx := &Context{
		Singular:   "account",
		Plural:     "accounts",
		Classified: "Account",
		Attributes: []appforge.Attribute{
			{Name: "email", Kind: appforge.KindText},
			{Name: "password", Kind: appforge.KindSecret},
			{Name: "bio", Kind: appforge.KindFreeText},
			{Name: "active", Kind: appforge.KindBoolean},
		},
	}

	files, err := r.Render(Views, ctx)
	require.NoError(t, err)
	form := files["app/views/accounts/_form.html.erb"]

	assert.Equal(t, len(ctx.Attributes), strings.Count(form, `<div class="field">`))
	assert.Contains(t, form, "form.text_field :email")
	assert.Contains(t, form, "form.password_field :password")
	assert.Contains(t, form, "form.text_area :bio")
	assert.Contains(t, form, "form.check_box :active")

	// Each fragment carries its own attribute, not another one's.
	assert.NotContains(t, form, "form.text_field :password")
	assert.NotContains(t, form, "form.check_box :email")
}

func TestUnknownTemplate(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	_, err := r.Render("no/such/template", postContext())
	assert.True(t, appforge.IsUnknownTemplate(err))
}

func TestMissingBinding(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	_, err := r.Render(Controller, &Context{Singular: "post", Plural: "posts"})
	require.True(t, appforge.IsMissingBinding(err))

	var terr *appforge.TemplateError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "Classified", terr.Binding)
}

func TestDuplicateRegistration(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	tpl := &Template{ID: "x", Files: []File{{Path: "a", Body: "b"}}}
	require.NoError(t, r.Register(tpl))

	err := r.Register(&Template{ID: "x", Files: []File{{Path: "c", Body: "d"}}})
	assert.True(t, appforge.IsDuplicateRegistration(err))
}

// TestSinglePass verifies that rendered output containing substitution
// delimiters is not expanded a second time.
func TestSinglePass(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Register(&Template{
		ID:    "literal",
		Files: []File{{Path: "out.txt", Body: "before {{.Env.raw}} after"}},
	}))

	ctx := &Context{Env: map[string]string{"raw": "{{.Plural}}"}}
	files, err := r.Render("literal", ctx)
	require.NoError(t, err)
	assert.Equal(t, "before {{.Plural}} after", files["out.txt"])
}

func TestMissingEnvKeyFails(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Register(&Template{
		ID:    "envy",
		Files: []File{{Path: "out.txt", Body: "{{.Env.port}}"}},
	}))

	_, err := r.Render("envy", &Context{Env: map[string]string{}})
	assert.Error(t, err)
}

func TestSkeletonEnvelope(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	files, err := r.Render(Skeleton, &Context{AppName: "blog"})
	require.NoError(t, err)

	routes := files["config/routes.rb"]
	require.NotEmpty(t, routes)
	lines := strings.Split(strings.TrimSuffix(routes, "\n"), "\n")
	assert.Equal(t, "end", lines[len(lines)-1])
}
