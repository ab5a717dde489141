package template

// Built-in payload templates. The engine treats these bodies as opaque text;
// nothing here is ever evaluated, only substituted and written out.

// Template ids exposed by the default registry.
const (
	Skeleton   = "app/skeleton"
	Model      = "resource/model"
	Migration  = "resource/migration"
	Controller = "resource/controller"
	Views      = "resource/views"
	Seed       = "resource/seed"
	Route      = "resource/route"
)

// DefaultRegistry returns a registry with every built-in template installed.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range builtins {
		// Built-in ids are unique by construction.
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

var builtins = []*Template{
	{
		ID:       Skeleton,
		Requires: []string{"AppName"},
		Files: []File{
			{
				Path: "Gemfile",
				Body: `source "https://rubygems.org"

# Dependencies of the {{.AppName}} application.
gem "rails"
gem "pg"
gem "puma"
`,
			},
			{
				Path: "config/routes.rb",
				Body: `Rails.application.routes.draw do
end
`,
			},
			{
				Path: "db/seeds.rb",
				Body: `Dir[File.join(__dir__, "seeds", "*.rb")].sort.each { |f| load f }
`,
			},
			{
				Path: "app/views/layouts/application.html.erb",
				Body: `<!DOCTYPE html>
<html>
  <head>
    <title>{{title .AppName}}</title>
  </head>
  <body>
    <%= yield %>
  </body>
</html>
`,
			},
		},
	},
	{
		ID:       Model,
		Requires: []string{"Singular", "Classified"},
		Files: []File{
			{
				Path: "app/models/{{.Singular}}.rb",
				Body: `class {{.Classified}} < ApplicationRecord
{{- range .Attributes}}
{{- if ne (column .) "boolean"}}
  validates :{{.Name}}, presence: true
{{- end}}
{{- end}}
end
`,
			},
		},
	},
	{
		ID:       Migration,
		Requires: []string{"Plural"},
		Files: []File{
			{
				Path: "db/migrate/create_{{.Plural}}.rb",
				Body: `class Create{{camelize .Plural}} < ActiveRecord::Migration
  def change
    create_table :{{.Plural}} do |t|
{{- range .Attributes}}
      t.{{column .}} :{{.Name}}
{{- end}}
      t.timestamps
    end
  end
end
`,
			},
		},
	},
	{
		ID:       Controller,
		Requires: []string{"Singular", "Plural", "Classified"},
		Files: []File{
			{
				Path: "app/controllers/{{.Plural}}_controller.rb",
				Body: `class {{camelize .Plural}}Controller < ApplicationController
  def index
    @{{.Plural}} = {{.Classified}}.all
  end

  def show
    @{{.Singular}} = {{.Classified}}.find(params[:id])
  end

  def new
    @{{.Singular}} = {{.Classified}}.new
  end

  def create
    @{{.Singular}} = {{.Classified}}.new({{.Singular}}_params)
    if @{{.Singular}}.save
      redirect_to @{{.Singular}}
    else
      render :new
    end
  end

  def edit
    @{{.Singular}} = {{.Classified}}.find(params[:id])
  end

  def update
    @{{.Singular}} = {{.Classified}}.find(params[:id])
    if @{{.Singular}}.update({{.Singular}}_params)
      redirect_to @{{.Singular}}
    else
      render :edit
    end
  end

  def destroy
    {{.Classified}}.find(params[:id]).destroy
    redirect_to {{.Plural}}_path
  end

  private

  def {{.Singular}}_params
    params.require(:{{.Singular}}).permit({{permit .Attributes}})
  end
end
`,
			},
		},
	},
	{
		ID:       Views,
		Requires: []string{"Singular", "Plural", "Classified"},
		Files: []File{
			{
				Path: "app/views/{{.Plural}}/index.html.erb",
				Body: `<h1>{{title .Plural}}</h1>

<ul>
  <% @{{.Plural}}.each do |{{.Singular}}| %>
    <li><%= link_to "{{.Classified}} ##{ {{.Singular}}.id }", {{.Singular}} %></li>
  <% end %>
</ul>

<%= link_to "New {{.Classified}}", new_{{.Singular}}_path %>
`,
			},
			{
				Path: "app/views/{{.Plural}}/show.html.erb",
				Body: `<h1>{{.Classified}}</h1>

<dl>
{{- range .Attributes}}
  <dt>{{label .}}</dt>
  <dd><%= @{{$.Singular}}.{{.Name}} %></dd>
{{- end}}
</dl>

<%= link_to "Back", {{.Plural}}_path %>
`,
			},
			{
				Path: "app/views/{{.Plural}}/new.html.erb",
				Body: `<h1>New {{.Classified}}</h1>

<%= render "form", {{.Singular}}: @{{.Singular}} %>

<%= link_to "Back", {{.Plural}}_path %>
`,
			},
			{
				Path: "app/views/{{.Plural}}/edit.html.erb",
				Body: `<h1>Edit {{.Classified}}</h1>

<%= render "form", {{.Singular}}: @{{.Singular}} %>

<%= link_to "Back", {{.Plural}}_path %>
`,
			},
			{
				Path: "app/views/{{.Plural}}/_form.html.erb",
				Body: `<%= form_with model: {{.Singular}} do |form| %>
{{- range .Attributes}}
  <div class="field">
    <%= form.label :{{.Name}}, "{{label .}}" %>
    {{input .}}
  </div>
{{- end}}
  <%= form.submit %>
<% end %>
`,
			},
		},
	},
	{
		ID:       Seed,
		Requires: []string{"Plural", "Classified"},
		Files: []File{
			{
				Path: "db/seeds/{{.Plural}}.rb",
				Body: `3.times do |i|
  {{.Classified}}.create!({{seedargs .Attributes}})
end
`,
			},
		},
	},
	{
		ID:       Route,
		Requires: []string{"Plural"},
		Files: []File{
			{
				Path: "{{.Plural}}",
				Body: `resources :{{.Plural}}`,
			},
		},
	},
}
