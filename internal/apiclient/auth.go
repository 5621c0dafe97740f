package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
)

// User is the signed-in user as returned by the auth endpoints.
type User struct {
	UserID    int64  `json:"userID"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
}

// Company is the tenant the user belongs to.
type Company struct {
	CompanyID      int64  `json:"companyID"`
	CompanyName    string `json:"companyName"`
	CurrencySymbol string `json:"currencySymbol,omitempty"`
}

// AuthResult is the reply of login and signup.
type AuthResult struct {
	Token   string   `json:"token"`
	User    *User    `json:"user,omitempty"`
	Company *Company `json:"company,omitempty"`
}

// Signup is the registration form. Logo is optional.
type Signup struct {
	FirstName      string `form:"firstName" validate:"required"`
	LastName       string `form:"lastName"`
	Email          string `form:"email" validate:"required,email"`
	Password       string `form:"password" validate:"required"`
	CompanyName    string `form:"companyName" validate:"required"`
	Address        string `form:"address"`
	City           string `form:"city"`
	ZipCode        string `form:"zipCode"`
	Industry       string `form:"industry"`
	CurrencySymbol string `form:"currencySymbol" validate:"required"`

	LogoName string    `form:"-"`
	Logo     io.Reader `form:"-"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (*AuthResult, error) {
	in := map[string]any{"email": email, "password": password, "rememberMe": rememberMe}
	var out AuthResult
	if err := c.doJSON(ctx, "auth.login", http.MethodPost, "/Auth/Login", in, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("auth.login: response carried no token")
	}
	return &out, nil
}

// Signup registers a company and its first user as a multipart form.
func (c *Client) Signup(ctx context.Context, s Signup) (*AuthResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"FirstName", s.FirstName},
		{"LastName", s.LastName},
		{"Email", s.Email},
		{"Password", s.Password},
		{"CompanyName", s.CompanyName},
		{"Address", s.Address},
		{"City", s.City},
		{"ZipCode", s.ZipCode},
		{"Industry", s.Industry},
		{"CurrencySymbol", s.CurrencySymbol},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("auth.signup: write field %s: %w", f.name, err)
		}
	}
	if s.Logo != nil {
		name := s.LogoName
		if name == "" {
			name = "logo"
		}
		part, err := mw.CreateFormFile("logo", name)
		if err != nil {
			return nil, fmt.Errorf("auth.signup: create logo part: %w", err)
		}
		if _, err := io.Copy(part, s.Logo); err != nil {
			return nil, fmt.Errorf("auth.signup: copy logo: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("auth.signup: close form: %w", err)
	}

	body, err := c.do(ctx, request{
		op:          "auth.signup",
		method:      http.MethodPost,
		path:        "/Auth/Signup",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := decode("auth.signup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompanyLogoURL returns the full-size logo URL of a company.
func (c *Client) CompanyLogoURL(ctx context.Context, companyID int64) (string, error) {
	return c.logoURL(ctx, "auth.logo", "/Auth/GetCompanyLogoUrl/"+strconv.FormatInt(companyID, 10))
}

// logoURL accepts a bare URL, a JSON string or an object with a url field.
func (c *Client) logoURL(ctx context.Context, op, path string) (string, error) {
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path})
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return string(bytes.TrimSpace(body)), nil
	}
	v := gjson.ParseBytes(body)
	if v.Type == gjson.String {
		return v.Str, nil
	}
	for _, k := range []string{"url", "Url", "logoUrl", "LogoUrl"} {
		if u := v.Get(k); u.Type == gjson.String {
			return u.Str, nil
		}
	}
	return "", nil
}
