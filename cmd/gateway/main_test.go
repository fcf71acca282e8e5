package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const mainTestPrefix = "cmd/gateway:main_test"

func TestUsage_ContainsCommands(t *testing.T) {
	required := []string{"serve", "migrate", "call", "dialects", "ensure-db", "DATABASE_URL"}
	for _, word := range required {
		if !strings.Contains(usage, word) {
			t.Errorf("%s - usage should contain %q", mainTestPrefix, word)
		}
	}
}

func TestParseCallArgs(t *testing.T) {
	tests := []struct {
		name        string
		pairs       []string
		wantArgs    map[string]any
		wantDialect string
		wantErr     bool
	}{
		{"none", nil, map[string]any{}, "", false},
		{"strings", []string{"a=1", "b=x=y"}, map[string]any{"a": "1", "b": "x=y"}, "", false},
		{"json values", []string{"n:=3", "ok:=true", "ids:=[1,2]"}, map[string]any{"n": float64(3), "ok": true, "ids": []any{float64(1), float64(2)}}, "", false},
		{"dialect", []string{"_type=extjsform", "a=1"}, map[string]any{"a": "1"}, "extjsform", false},
		{"empty value", []string{"a="}, map[string]any{"a": ""}, "", false},
		{"missing equals", []string{"a"}, nil, "", true},
		{"empty key", []string{"=v"}, nil, "", true},
		{"bad json", []string{"n:={"}, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, dialect, err := parseCallArgs(tt.pairs)
			if tt.wantErr {
				if err == nil {
					t.Errorf("%s - expected error for %v", mainTestPrefix, tt.pairs)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s - unexpected error: %v", mainTestPrefix, err)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("%s - args mismatch (-want +got):\n%s", mainTestPrefix, diff)
			}
			if dialect != tt.wantDialect {
				t.Errorf("%s - dialect = %q, want %q", mainTestPrefix, dialect, tt.wantDialect)
			}
		})
	}
}

func TestRunCall_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantOut  string
	}{
		{"success", http.StatusOK, `{"success":true,"result":{"pong":true}}`, 0, `"pong": true`},
		{"remote error", http.StatusOK, `{"success":false,"errors":["bad input"]}`, 2, ""},
		{"http failure", http.StatusInternalServerError, `oops`, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotType string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				r.ParseForm()
				gotType = r.PostForm.Get("_type")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var stdout, stderr bytes.Buffer
			code := runCall(&stdout, &stderr, srv.URL, "system.ping", []string{"_type=extjsform"})
			if code != tt.wantCode {
				t.Fatalf("%s - exit code = %d, want %d (stderr %q)", mainTestPrefix, code, tt.wantCode, stderr.String())
			}
			if gotType != "extjsform" {
				t.Errorf("%s - _type = %q, want extjsform", mainTestPrefix, gotType)
			}
			if tt.wantOut != "" && !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("%s - stdout = %q, want it to contain %q", mainTestPrefix, stdout.String(), tt.wantOut)
			}
			if tt.wantCode != 0 && stderr.Len() == 0 {
				t.Errorf("%s - expected a message on stderr", mainTestPrefix)
			}
		})
	}
}

func TestRunCall_InvalidEndpoint(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runCall(&stdout, &stderr, "ftp://example", "system.ping", nil); code != 1 {
		t.Errorf("%s - exit code = %d, want 1", mainTestPrefix, code)
	}
}

func TestRunDialects(t *testing.T) {
	var out bytes.Buffer
	if err := runDialects(&out); err != nil {
		t.Fatalf("%s - runDialects: %v", mainTestPrefix, err)
	}
	var body struct {
		Default  string `json:"default"`
		Dialects []struct {
			Name string `json:"name"`
		} `json:"dialects"`
	}
	if err := json.Unmarshal(out.Bytes(), &body); err != nil {
		t.Fatalf("%s - decode output: %v", mainTestPrefix, err)
	}
	names := map[string]bool{}
	for _, d := range body.Dialects {
		names[d.Name] = true
	}
	for _, want := range []string{"default", "extjsform", "extjsstore", "extjsdirect"} {
		if !names[want] {
			t.Errorf("%s - dialect %q missing from %v", mainTestPrefix, want, names)
		}
	}
}
