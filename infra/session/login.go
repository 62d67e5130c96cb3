package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/CrestNiraj12/mumlife/domain"
)

const csrfFormField = "csrfmiddlewaretoken"

// Login signs in through the site's login form. It fetches the form to
// obtain a CSRF token, posts the credentials and reports
// domain.ErrUnauthorized when no session cookie comes back.
// client must use s as its cookie jar.
func Login(ctx context.Context, client *http.Client, s *Store, loginURL, username, password string) error {
	if client.Jar == nil {
		return errors.New("login client has no cookie jar")
	}
	page, err := get(ctx, client, loginURL)
	if err != nil {
		return err
	}

	token := formToken(page)
	if token == "" {
		token = s.CSRFToken()
	}
	if token == "" {
		return domain.ErrMissingCSRF
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set(csrfFormField, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", loginURL)
	req.Header.Set("X-CSRFToken", token)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("posting login form: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("login failed: %d", resp.StatusCode)
	}
	if !s.LoggedIn() {
		return domain.ErrUnauthorized
	}
	s.log.Info("logged in", zap.String("username", username))
	return s.Save()
}

func get(ctx context.Context, client *http.Client, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("creating login page request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching login page: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading login page: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("login page returned %d", resp.StatusCode)
	}
	return string(data), nil
}

// formToken returns the value of the hidden CSRF input of a page, if any.
func formToken(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "input" {
				continue
			}
			var name, value string
			for _, a := range tok.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "value":
					value = a.Val
				}
			}
			if name == csrfFormField {
				return value
			}
		}
	}
}
