package state

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkpad/internal/apperr"
	"github.com/starford/inkpad/internal/kvstore"
	"github.com/starford/inkpad/internal/models"
)

// Preferences is the persisted UI preference store (ui-store).
type Preferences struct {
	store *Store[models.Preferences]
}

// LoadPreferences restores preferences from kv. Fields that fail validation
// fall back to their defaults.
func LoadPreferences(kv kvstore.Store, logger *slog.Logger) (*Preferences, error) {
	store, err := Load(kv, models.UINamespace, models.DefaultPreferences(), logger)
	if err != nil {
		return nil, err
	}
	p := store.Get()
	if err := validatePreferences(p); err != nil {
		defaults := models.DefaultPreferences()
		if validation.Validate(p.Theme, themeRules...) != nil {
			p.Theme = defaults.Theme
		}
		if validation.Validate(p.Font, fontRules...) != nil {
			p.Font = defaults.Font
		}
		store.value = p
	}
	return &Preferences{store: store}, nil
}

var (
	themeRules = []validation.Rule{validation.Required, validation.In(models.ThemeLight, models.ThemeDark)}
	fontRules  = []validation.Rule{validation.Required, validation.Length(1, 64)}
)

func validatePreferences(p models.Preferences) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Theme, themeRules...),
		validation.Field(&p.Font, fontRules...),
	)
}

// Get returns the current preferences.
func (p *Preferences) Get() models.Preferences {
	return p.store.Get()
}

// SetTheme switches the display theme.
func (p *Preferences) SetTheme(theme models.Theme) error {
	if err := validation.Validate(theme, themeRules...); err != nil {
		return fmt.Errorf("state: theme %q: %w: %v", theme, apperr.ErrInvalid, err)
	}
	return p.store.Set(func(v *models.Preferences) { v.Theme = theme })
}

// SetFont switches the editor font.
func (p *Preferences) SetFont(font string) error {
	if err := validation.Validate(font, fontRules...); err != nil {
		return fmt.Errorf("state: font: %w: %v", apperr.ErrInvalid, err)
	}
	return p.store.Set(func(v *models.Preferences) { v.Font = font })
}

// Save replaces all preferences at once.
func (p *Preferences) Save(prefs models.Preferences) error {
	if err := validatePreferences(prefs); err != nil {
		return fmt.Errorf("state: preferences: %w: %v", apperr.ErrInvalid, err)
	}
	return p.store.Set(func(v *models.Preferences) { *v = prefs })
}

// ToggleTheme switches between light and dark and returns the new theme.
func (p *Preferences) ToggleTheme() (models.Theme, error) {
	next := models.ThemeDark
	if p.Get().Theme == models.ThemeDark {
		next = models.ThemeLight
	}
	return next, p.SetTheme(next)
}

// Subscribe registers fn for preference changes.
func (p *Preferences) Subscribe(fn func(models.Preferences)) (unsubscribe func()) {
	return p.store.Subscribe(fn)
}
