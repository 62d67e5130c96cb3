package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/CrestNiraj12/mumlife/domain"
)

func loginServer(t *testing.T, got *url.Values) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "cookie-token", Path: "/"})
			_, _ = io.WriteString(w, `<form method="post"><input type="hidden" name="csrfmiddlewaretoken" value="form-token"/></form>`)
		case http.MethodPost:
			_ = r.ParseForm()
			*got = r.PostForm
			if r.PostForm.Get("password") != "secret" {
				_, _ = io.WriteString(w, "bad credentials")
				return
			}
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "sess", Path: "/"})
			w.WriteHeader(http.StatusOK)
		}
	}))
}

func TestLogin_PostsCredentialsWithFormToken(t *testing.T) {
	var form url.Values
	srv := loginServer(t, &form)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "cookies.json")
	s, err := Open(srv.URL+"/", path, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	client := &http.Client{Jar: s}

	if err := Login(context.Background(), client, s, srv.URL+"/", "mum@mumlife.test", "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if form.Get("username") != "mum@mumlife.test" || form.Get(csrfFormField) != "form-token" {
		t.Fatalf("unexpected login form: %#v", form)
	}
	if !s.LoggedIn() {
		t.Fatalf("session cookie must be stored")
	}

	reopened, err := Open(srv.URL+"/", path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if !reopened.LoggedIn() {
		t.Fatalf("session must be persisted after login")
	}
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	var form url.Values
	srv := loginServer(t, &form)
	defer srv.Close()

	s, err := Open(srv.URL+"/", "", nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	err = Login(context.Background(), &http.Client{Jar: s}, s, srv.URL+"/", "mum", "wrong")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFormToken(t *testing.T) {
	page := `<html><body><input name="q"><input type="hidden" value="abc" name="csrfmiddlewaretoken"></body></html>`
	if got := formToken(page); got != "abc" {
		t.Fatalf("unexpected token: %q", got)
	}
	if got := formToken("<p>no form</p>"); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
