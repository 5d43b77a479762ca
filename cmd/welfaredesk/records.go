package main

import (
	"github.com/welfaredesk/welfaredesk/internal/app"
	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/pages"
	"github.com/welfaredesk/welfaredesk/internal/records"
	"github.com/welfaredesk/welfaredesk/internal/resource"
	"github.com/welfaredesk/welfaredesk/internal/view"
)

func recordPages(client *backend.Client, deps pages.Deps) []app.RecordPages {
	return []app.RecordPages{
		mount(client, records.LeprosySchema, deps),
		mount(client, records.AspirantSchema, deps),
		mount(client, records.DropoutSchema, deps),
		mount(client, records.GroupLeaderSchema, deps),
		mount(client, records.StudyCenterSchema, deps),
		mount(client, records.CBUCBOSchema, deps),
		mount(client, records.EntitlementSchema, deps),
		mount(client, records.LegalAidSchema, deps),
	}
}

func mount[T resource.Record[T]](client *backend.Client, schema resource.Schema[T], deps pages.Deps) app.RecordPages {
	return pages.NewHandler(schema, backend.NewCollection[T](client, schema.Collection), deps)
}

func navigation() []view.NavLink {
	catalog := records.Catalog()
	links := make([]view.NavLink, 0, len(catalog))
	for _, e := range catalog {
		links = append(links, view.NavLink{Name: e.Name, Title: e.Title, Module: e.Module})
	}
	return links
}
