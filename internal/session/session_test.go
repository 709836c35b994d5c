package session

import (
	"net/http"
	"testing"
	"time"

	"github.com/cocobomp/witm-go/internal/store"
)

func TestNew(t *testing.T) {
	db, err := store.NewDB(t.TempDir() + "/session-test.db")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	sm := New(db, false)
	if sm.Lifetime != 24*time.Hour {
		t.Errorf("lifetime = %v", sm.Lifetime)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("cookie not HttpOnly")
	}
	if !sm.Cookie.Secure {
		t.Error("production cookie not Secure")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("samesite = %v", sm.Cookie.SameSite)
	}

	dev := New(db, true)
	if dev.Cookie.Secure {
		t.Error("dev cookie should not be Secure")
	}
}
