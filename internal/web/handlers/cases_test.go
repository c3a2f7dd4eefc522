package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Karshmistry/CrimAII/internal/cases"
	"github.com/Karshmistry/CrimAII/internal/database"
)

func casesInput(name string) cases.Input {
	return cases.Input{Name: name, Crime: "theft"}
}

func TestCasesHandler_Add_Success(t *testing.T) {
	svc, g, store := newTestCases(t)
	handler := NewCasesHandler(svc, g)

	req := multipartRequest(t, "/add_criminal", map[string]string{
		"name":        "John Doe",
		"age":         "41",
		"father_name": "Richard Doe",
		"crime":       "fraud",
	}, "mugshot.PNG", testPNG(t, 16, 16))
	recorder := httptest.NewRecorder()
	handler.Add(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	assertJSONMessage(t, recorder, "Criminal John Doe added successfully!")

	list, err := store.ListCases(t.Context())
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one case, got %v (err %v)", list, err)
	}
	c := list[0]
	if !strings.HasPrefix(c.ImageFilename, "John_Doe_") || !strings.HasSuffix(c.ImageFilename, ".png") {
		t.Errorf("unexpected filename %q", c.ImageFilename)
	}
	if c.ImagePath != "/faces_db/"+c.ImageFilename {
		t.Errorf("image_path = %q", c.ImagePath)
	}
	if c.Age != "41" || c.FatherName != "Richard Doe" || c.Crime != "fraud" {
		t.Errorf("metadata not stored: %+v", c)
	}
	if names, _ := g.Candidates(); len(names) != 1 || names[0] != c.ImageFilename {
		t.Errorf("gallery = %v", names)
	}
}

func TestCasesHandler_Add_MissingInput(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		image  bool
	}{
		{"no name", map[string]string{"crime": "x"}, true},
		{"blank name", map[string]string{"name": "  "}, true},
		{"no image", map[string]string{"name": "John"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, g, store := newTestCases(t)
			handler := NewCasesHandler(svc, g)

			var img []byte
			if tt.image {
				img = testPNG(t, 4, 4)
			}
			recorder := httptest.NewRecorder()
			handler.Add(recorder, multipartRequest(t, "/add_criminal", tt.fields, "a.png", img))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, "Name and image are required")
			if list, _ := store.ListCases(t.Context()); len(list) != 0 {
				t.Errorf("no case should be stored, got %d", len(list))
			}
		})
	}
}

func TestCasesHandler_Add_NotMultipart(t *testing.T) {
	svc, g, _ := newTestCases(t)
	handler := NewCasesHandler(svc, g)

	recorder := httptest.NewRecorder()
	handler.Add(recorder, httptest.NewRequest(http.MethodPost, "/add_criminal", strings.NewReader(`{"name":"x"}`)))
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestCasesHandler_Add_InvalidImage(t *testing.T) {
	svc, g, _ := newTestCases(t)
	handler := NewCasesHandler(svc, g)

	recorder := httptest.NewRecorder()
	handler.Add(recorder, multipartRequest(t, "/add_criminal", map[string]string{"name": "John"},
		"a.jpg", []byte("definitely not an image")))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "Invalid image")
	if names, _ := g.Candidates(); len(names) != 0 {
		t.Errorf("nothing should be written, gallery = %v", names)
	}
}

func TestCasesHandler_Add_StoreError(t *testing.T) {
	svc, g, store := newTestCases(t)
	store.InsertCaseError = errors.New("db down")
	handler := NewCasesHandler(svc, g)

	recorder := httptest.NewRecorder()
	handler.Add(recorder, multipartRequest(t, "/add_criminal", map[string]string{"name": "John"},
		"a.png", testPNG(t, 4, 4)))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	if names, _ := g.Candidates(); len(names) != 0 {
		t.Errorf("image should be removed after failed insert, gallery = %v", names)
	}
}

func TestCasesHandler_List(t *testing.T) {
	svc, g, store := newTestCases(t)
	handler := NewCasesHandler(svc, g)

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/cases", nil))
	assertStatusCode(t, recorder, http.StatusOK)
	if strings.TrimSpace(recorder.Body.String()) != "[]" {
		t.Errorf("empty listing should be [], got %s", recorder.Body.String())
	}

	store.AddCase(database.Case{Name: "Alice", ImageFilename: "alice.jpg"})
	recorder = httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/cases", nil))

	var got []database.Case
	parseJSONResponse(t, recorder, &got)
	if len(got) != 1 || got[0].Name != "Alice" {
		t.Errorf("unexpected cases: %+v", got)
	}

	store.ListCasesError = errors.New("db down")
	recorder = httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/cases", nil))
	assertStatusCode(t, recorder, http.StatusInternalServerError)
}

func TestCasesHandler_Image(t *testing.T) {
	svc, g, _ := newTestCases(t)
	handler := NewCasesHandler(svc, g)

	img := testPNG(t, 4, 4)
	name, err := g.Save("alice", ".png", bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		filename   string
		wantStatus int
	}{
		{"existing", name, http.StatusOK},
		{"missing", "bob.png", http.StatusNotFound},
		{"traversal", "../secret.png", http.StatusNotFound},
		{"not an image", "notes.txt", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/faces_db/x", nil),
				map[string]string{"filename": tt.filename})
			recorder := httptest.NewRecorder()
			handler.Image(recorder, req)

			assertStatusCode(t, recorder, tt.wantStatus)
			if tt.wantStatus == http.StatusOK {
				assertContentType(t, recorder, "image/png")
				if !bytes.Equal(recorder.Body.Bytes(), img) {
					t.Error("served bytes differ from stored image")
				}
			}
		})
	}
}
