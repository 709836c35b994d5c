package i18n

import (
	"log/slog"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	if err := Init(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestTranslation(t *testing.T) {
	if got := T("fr", "nav.home"); got != "Accueil" {
		t.Errorf("T(fr, nav.home) = %q, want Accueil", got)
	}
	if got := T("en", "nav.home"); got != "Home" {
		t.Errorf("T(en, nav.home) = %q, want Home", got)
	}
	if got := T("de", "nav.home"); got != "Startseite" {
		t.Errorf("T(de, nav.home) = %q, want Startseite", got)
	}
}

func TestTranslationWithArgs(t *testing.T) {
	got := T("en", "home.features.questions", 500)
	want := "Over 500 questions to liven up your parties"
	if got != want {
		t.Errorf("T with args = %q, want %q", got, want)
	}
}

func TestMissingKeyReturnsKey(t *testing.T) {
	if got := T("fr", "no.such.key"); got != "no.such.key" {
		t.Errorf("missing key = %q, want key itself", got)
	}
}

func TestUnknownLanguageFallsBackToDefault(t *testing.T) {
	if got := T("pt", "nav.home"); got != "Accueil" {
		t.Errorf("T(pt, nav.home) = %q, want French fallback", got)
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"fr-FR,fr;q=0.9,en;q=0.8", "fr"},
		{"en-US,en;q=0.9", "en"},
		{"de-DE", "de"},
		{"de", "de"},
		{"pt-BR", "fr"},
		{"", "fr"},
		{"garbage;;;", "fr"},
	}
	for _, tt := range tests {
		if got := MatchLanguage(tt.accept); got != tt.want {
			t.Errorf("MatchLanguage(%q) = %q, want %q", tt.accept, got, tt.want)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, lang := range []string{"fr", "en", "de", "FR"} {
		if !IsSupported(lang) {
			t.Errorf("IsSupported(%q) = false, want true", lang)
		}
	}
	for _, lang := range []string{"pt", "es", ""} {
		if IsSupported(lang) {
			t.Errorf("IsSupported(%q) = true, want false", lang)
		}
	}
}

func TestTranslationCount(t *testing.T) {
	for _, lang := range SupportedLanguages {
		if n := TranslationCount(lang); n == 0 {
			t.Errorf("TranslationCount(%q) = 0, want > 0", lang)
		}
	}
}
