package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"auth-api/internal/service"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider encapsula el flujo OAuth de Google: redirect, intercambio
// de code y lectura del perfil. Reemplaza el registro global de estrategias
// por una dependencia explícita del handler.
type GoogleProvider struct {
	cfg *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// Enabled indica si hay credenciales configuradas.
func (p *GoogleProvider) Enabled() bool {
	return p != nil && strings.TrimSpace(p.cfg.ClientID) != ""
}

// AuthCodeURL arma la URL de autorización para el redirect inicial.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// NewState genera el valor anti-CSRF para la ida y vuelta del redirect.
func NewState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FetchProfile intercambia el code por un token y lee el perfil del usuario.
func (p *GoogleProvider) FetchProfile(ctx context.Context, code string) (service.GoogleProfile, error) {
	if strings.TrimSpace(code) == "" {
		return service.GoogleProfile{}, errors.New("oauth code is required")
	}
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return service.GoogleProfile{}, err
	}

	client := p.cfg.Client(ctx, token)
	resp, err := client.Get(userinfoURL)
	if err != nil {
		return service.GoogleProfile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return service.GoogleProfile{}, fmt.Errorf("userinfo request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return service.GoogleProfile{}, err
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return service.GoogleProfile{}, err
	}
	if info.ID == "" || info.Email == "" {
		return service.GoogleProfile{}, errors.New("userinfo response incomplete")
	}
	return service.GoogleProfile{
		ID:    info.ID,
		Email: info.Email,
		Name:  info.Name,
	}, nil
}
