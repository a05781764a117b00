// Package templates holds the named message templates channel adapters render
// notifications through. Template names follow the "<type>.<channel>"
// convention; adapters fall back to a built-in rendering when no template is
// registered for a pair.
package templates

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/storelane/notification-service/internal/model"
)

// Store compiles and renders named templates. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// Name returns the conventional template name for a type+channel pair.
func Name(t model.Type, c model.Channel) string {
	return string(t) + "." + string(c)
}

// NewStore seeds the store with the built-in templates.
func NewStore() *Store {
	s := &Store{templates: make(map[string]*template.Template)}

	_ = s.Register(Name(model.TypeOrderPlaced, model.ChannelEmail),
		"Your order {{.OrderID}} has been placed. We'll let you know once it ships.")
	_ = s.Register(Name(model.TypeOrderPlaced, model.ChannelSMS),
		"Order {{.OrderID}} placed. Track it in the app.")
	_ = s.Register(Name(model.TypeOrderShipped, model.ChannelSMS),
		"Order {{.OrderID}} shipped. ETA {{.ETA}}.")
	_ = s.Register(Name(model.TypeSecurityAlert, model.ChannelEmail),
		"Security alert: {{.Reason}}. If this wasn't you, change your password immediately.")
	_ = s.Register(Name(model.TypePromotionalOffer, model.ChannelEmail),
		"{{.Offer}} — valid until {{.ValidUntil}}.")

	return s
}

// Register adds or replaces a template definition.
func (s *Store) Register(name, body string) error {
	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = tmpl

	return nil
}

// Has reports whether a template with the given name is registered.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.templates[name]
	return ok
}

// Render executes the named template with the notification's data payload.
func (s *Store) Render(name string, data map[string]string) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[name]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}

	return out.String(), nil
}
