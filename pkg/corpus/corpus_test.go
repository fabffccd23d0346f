package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "the cat sat", "the cat sat"},
		{"surrounding whitespace", "  the cat sat \n", "the cat sat"},
		{"newlines and tabs", "the\ncat\t\tsat", "the cat sat"},
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.txt": "second document",
		"a.txt": "first document",
		"c.md":  "ignored, wrong extension",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := LoadFiles(dir, ".txt")
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	// Sorted path order keeps vocabulary ids reproducible across runs.
	want := []string{"first document", "second document"}
	if !reflect.DeepEqual(docs, want) {
		t.Errorf("LoadFiles() = %v, want %v", docs, want)
	}
}

func TestLoadFilesEmptyDir(t *testing.T) {
	docs, err := LoadFiles(t.TempDir(), ".txt")
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("LoadFiles() on empty dir = %v, want none", docs)
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	data := "id,text,score\n1,the cat sat,0.5\n2,the dog sat,0.7\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadCSV(path, "text", 0)
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	want := []string{"the cat sat", "the dog sat"}
	if !reflect.DeepEqual(docs, want) {
		t.Errorf("LoadCSV() = %v, want %v", docs, want)
	}
}

func TestLoadCSVCustomDelimiter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	data := "id;text\n1;the cat sat\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadCSV(path, "text", ';')
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if want := []string{"the cat sat"}; !reflect.DeepEqual(docs, want) {
		t.Errorf("LoadCSV() = %v, want %v", docs, want)
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	if err := os.WriteFile(path, []byte("id,text\n1,the cat\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCSV(path, "body", 0); err == nil {
		t.Error("LoadCSV() with a missing column expected an error")
	}
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	db, err := openDB(path)
	if err != nil {
		t.Fatalf("openDB() error = %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE documents (doc_id INTEGER PRIMARY KEY, body TEXT NOT NULL)`); err != nil {
		t.Fatal(err)
	}
	for _, body := range []string{"the cat sat", "the dog sat"} {
		if _, err := db.Exec(`INSERT INTO documents (body) VALUES (?)`, body); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadSQLite(path, `SELECT body FROM documents ORDER BY doc_id`)
	if err != nil {
		t.Fatalf("LoadSQLite() error = %v", err)
	}
	want := []string{"the cat sat", "the dog sat"}
	if !reflect.DeepEqual(docs, want) {
		t.Errorf("LoadSQLite() = %v, want %v", docs, want)
	}
}

func TestLoadSQLiteBadQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	db, err := openDB(path)
	if err != nil {
		t.Fatalf("openDB() error = %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE documents (body TEXT)`); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSQLite(path, `SELECT body FROM no_such_table`); err == nil {
		t.Error("LoadSQLite() with a bad query expected an error")
	}
}
