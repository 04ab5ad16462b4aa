package config_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingrid/pkg/config"
	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/request"
	"github.com/goliatone/go-admingrid/pkg/testsupport"
	"github.com/goliatone/go-admingrid/pkg/widget"
)

const patientsYAML = `
id: patients
table: patients
defaults:
  order: name
  limit: 2
search: [name]
fields:
  - key: name
    sortable: true
    truncate: 5
    suffix: "~"
  - key: doctor.name
    label: Doctor
  - key: born
    type: date
    format: "2006"
filters:
  - name: status
    field: status
    default: active
actions:
  - key: open
    link: "/patients/{{ id }}"
    visible: status == "active"
deleteAction: true
rules:
  openapi: clinic.yaml
  scope: Patient
`

const clinicYAML = `
openapi: 3.0.3
info: {title: Clinic, version: "1"}
paths: {}
components:
  schemas:
    Patient:
      type: object
      properties:
        name:
          type: string
          title: Ignored because the widget configures it
        status:
          type: string
          enum: [active, archived]
        visits:
          type: integer
`

func files() fstest.MapFS {
	return fstest.MapFS{
		"widgets/patients.widget.yaml": {Data: []byte(patientsYAML)},
		"widgets/clinic.yaml":          {Data: []byte(clinicYAML)},
	}
}

func TestLoadApplyServe(t *testing.T) {
	t.Parallel()

	fsys := files()
	def, err := config.Load(fsys, "widgets/patients.widget.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.TableName() != "patients" || def.Source != "widgets/patients.widget.yaml" {
		t.Fatalf("unexpected definition: %+v", def)
	}

	b := widget.New(def.ID, testsupport.PatientSource(), widget.WithDefaults(request.Defaults{Now: testsupport.Clock()}))
	if err := def.Apply(b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := def.Seed(testsupport.Context(), fsys, b); err != nil {
		t.Fatalf("seed: %v", err)
	}
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	keys := make([]string, 0)
	for _, f := range w.Fields() {
		keys = append(keys, f.Key)
	}
	if diff := cmp.Diff([]string{"name", "doctor.name", "born", "status", "visits"}, keys); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	resp, err := w.Serve(testsupport.Context(), nil)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if resp.Pagination.Total != 3 || len(resp.Rows) != 2 {
		t.Fatalf("expected default filter to apply, got %+v", resp.Pagination)
	}
	if resp.Rows[0]["name"] != "Ada L~" || resp.Rows[0]["born"] != "1815" {
		t.Fatalf("unexpected first row: %#v", resp.Rows[0])
	}
	if len(resp.Actions) != 2 || resp.Actions[0].Key != "open" {
		t.Fatalf("expected open and delete actions, got %+v", resp.Actions)
	}

	archived, err := w.Serve(testsupport.Context(), testsupport.Params("patients", request.ParamFilter, "status:archived"))
	if err != nil {
		t.Fatalf("serve archived: %v", err)
	}
	if len(archived.Actions) != 1 || archived.Actions[0].Key != "delete" {
		t.Fatalf("open action should be hidden for archived, got %+v", archived.Actions)
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	def, err := config.Parse([]byte(`{"id":"agenda","kind":"schedule","schedule":{"resource":"room","start":"starts_at","end":"ends_at"},"fields":[{"key":"starts_at","type":"datetime"}]}`), "agenda.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b := widget.New(def.ID, testsupport.AppointmentSource())
	if err := def.Apply(b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if w.Kind() != widget.KindSchedule {
		t.Fatalf("expected schedule widget, got %s", w.Kind())
	}
	if f := w.Fields()[0]; f.Type != model.FieldTypeDateTime {
		t.Fatalf("unexpected field: %+v", f)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":         "",
		"missing id":    "kind: table",
		"bad kind":      "id: x\nkind: pie",
		"bad type":      "id: x\nfields: [{key: a, type: money}]",
		"bad operator":  "id: x\nfilters: [{name: a, field: a, operator: approx}]",
		"bad schedule":  "id: x\nschedule: {resource: room}",
		"not a mapping": "- just\n- a list",
	}
	for name, doc := range cases {
		if _, err := config.Parse([]byte(doc), name); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadDirSkipsNonDefinitionsAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	defs, err := config.LoadDir(files())
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "patients" {
		t.Fatalf("unexpected definitions: %+v", defs)
	}

	dup := files()
	dup["other/patients.widget.json"] = &fstest.MapFile{Data: []byte(`{"id":"patients"}`)}
	if _, err := config.LoadDir(dup); err == nil || !strings.Contains(err.Error(), "duplicate widget") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}
