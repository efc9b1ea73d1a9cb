// Package wd drives a headless Chrome against a running dev server
package wd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// ErrNoDriver is returned when chromedriver isn't installed
var ErrNoDriver = errors.New("wd: chromedriver not found in $PATH")

// Port the chromedriver service listens on
var Port = 4444

func Dial(url string) (*Browser, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	driver, err := exec.LookPath("chromedriver")
	if err != nil {
		return nil, ErrNoDriver
	}
	service, err := selenium.NewChromeDriverService(driver, Port, selenium.Output(&consoleWriter{os.Stderr}))
	if err != nil {
		return nil, fmt.Errorf("wd: unable to start chromedriver: %w", err)
	}
	caps := selenium.Capabilities{}
	caps.AddChrome(chrome.Capabilities{
		Args: []string{
			"--headless",
			"--disable-gpu",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
	})
	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://127.0.0.1:%d/wd/hub", Port))
	if err != nil {
		service.Stop()
		return nil, fmt.Errorf("wd: unable to open browser: %w", err)
	}
	return &Browser{wd, service, strings.TrimSuffix(url, "/")}, nil
}

type Browser struct {
	wd  selenium.WebDriver
	svc *selenium.Service
	url string
}

// Visit the path and wait for the page and its module scripts to settle
func (b *Browser) Visit(path string) error {
	if err := b.wd.Get(b.url + path); err != nil {
		return err
	}
	return b.WaitFor(5*time.Second, `document.readyState === "complete"`)
}

// Document parses the current page source
func (b *Browser) Document() (*goquery.Document, error) {
	html, err := b.wd.PageSource()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewBufferString(html))
}

// Text of the first element matching selector
func (b *Browser) Text(selector string) (string, error) {
	element, err := b.wd.FindElement(selenium.ByCSSSelector, selector)
	if err != nil {
		return "", fmt.Errorf("wd: unable to find %q: %w", selector, err)
	}
	return element.Text()
}

func (b *Browser) ComputedStyle(selector, property string) (string, error) {
	element, err := b.wd.FindElement(selenium.ByCSSSelector, selector)
	if err != nil {
		return "", fmt.Errorf("wd: unable to find %q: %w", selector, err)
	}
	return element.CSSProperty(property)
}

// Eval a javascript expression in the page
func (b *Browser) Eval(expr string) (any, error) {
	return b.wd.ExecuteScript("return "+expr, nil)
}

// WaitFor the boolean expression to become true
func (b *Browser) WaitFor(timeout time.Duration, expr string) error {
	return b.wd.WaitWithTimeout(func(selenium.WebDriver) (bool, error) {
		value, err := b.Eval(expr)
		if err != nil {
			return false, err
		}
		ok, isBool := value.(bool)
		if !isBool {
			return false, fmt.Errorf("wd: expected %q to be a bool, got %T", expr, value)
		}
		return ok, nil
	}, timeout)
}

func (b *Browser) Close() {
	b.wd.Quit()
	b.svc.Stop()
}
