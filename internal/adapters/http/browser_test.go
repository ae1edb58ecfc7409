//go:build browser

package web_test

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"aurora/internal/adapters/auth"
	"aurora/internal/adapters/docstore"
	"aurora/internal/adapters/email"
	web "aurora/internal/adapters/http"
	"aurora/internal/adapters/http/perf"
	"aurora/internal/adapters/storage"
	accountStore "aurora/internal/adapters/storage/account"
	pricingStore "aurora/internal/adapters/storage/pricing"
	"aurora/internal/application/orchestrators"
)

const (
	browserAdminEmail    = "admin@aurorabusiness.ca"
	browserAdminPassword = "TestPass123!longer"
)

type testApp struct {
	BaseURL string
	Browser playwright.Browser
}

// newTestApp runs the full site on a temp SQLite file and starts Chromium.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(filepath.Join(t.TempDir(), "aurora.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.InitDB(ctx, db); err != nil {
		t.Fatalf("init db: %v", err)
	}
	accounts := accountStore.NewSQLiteStore(db)
	if _, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Email: browserAdminEmail, Password: browserAdminPassword,
	}, orchestrators.SeedAdminDeps{AccountStore: accounts, Now: time.Now}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	pricing := pricingStore.NewDocumentStore(docstore.NewSQLiteGateway(db))
	orchestrators.ExecuteSeedPricing(ctx, orchestrators.SeedPricingInput{}, orchestrators.SeedPricingDeps{Store: pricing})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	web.RateLimitPerSecond = 1000
	srv := &http.Server{Handler: web.NewMux(&web.Deps{
		Pricing:        pricing,
		Auth:           auth.NewLocalProvider(accounts),
		Sender:         email.NewNoopSender(),
		Mail:           orchestrators.DefaultContactMail(),
		Collector:      perf.NewCollector(1000),
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port)},
	})}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("start playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		t.Fatalf("launch browser: %v", err)
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})
	return &testApp{BaseURL: baseURL, Browser: browser}
}

func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

func TestBrowser_ServiceTogglePersists(t *testing.T) {
	app := newTestApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/pricing"); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if err := page.Locator("[data-testid=service-toggle]").Click(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := page.Locator("html[data-service='web-design']").WaitFor(); err != nil {
		t.Fatalf("toggle did not switch the service: %v", err)
	}

	// A fresh navigation reads the cookie back.
	if _, err := page.Goto(app.BaseURL + "/pricing"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	svc, err := page.Locator("html").GetAttribute("data-service")
	if err != nil || svc != "web-design" {
		t.Fatalf("data-service = %q, %v", svc, err)
	}
	if n, _ := page.Locator("text=Basic Website").Count(); n == 0 {
		t.Error("web design tiers not shown after toggle")
	}
}

func TestBrowser_AdminLoginAndEdit(t *testing.T) {
	app := newTestApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/admin/pricing"); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL + "/admin/login"); err != nil {
		t.Fatalf("guard did not redirect: %v", err)
	}
	page.Locator("input[name=email]").Fill(browserAdminEmail)
	page.Locator("input[name=password]").Fill(browserAdminPassword)
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL + "/admin/dashboard"); err != nil {
		t.Fatalf("login did not land on the dashboard: %v", err)
	}

	page.Goto(app.BaseURL + "/admin/pricing?service=taxation")
	if err := page.Locator("tr", playwright.PageLocatorOptions{HasText: "Personal Tax"}).Locator("button:has-text('Edit')").Click(); err != nil {
		t.Fatalf("open editor: %v", err)
	}
	page.Locator(".tier-editor input[name=price]").Fill("175")
	if err := page.Locator(".tier-editor button[value=save]").Click(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if n, _ := page.Locator(".tier-editor").Count(); n != 0 {
		t.Error("editor still open after save")
	}
	if n, _ := page.Locator("text=$175").Count(); n == 0 {
		t.Error("saved price not shown")
	}
}
