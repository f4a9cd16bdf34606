package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"aktis-collector-wonderdesk/internal/common"
)

const testBaseURL = "https://hd.test"

// fakeSite is an in-memory helpdesk behind the SessionDriver interface.
// Links navigate to their href; submitting the login form succeeds when
// the filled values contain the expected credentials and reloads the login
// page otherwise. With navDelay set, a navigation started by a click
// commits only after the delay, the way a real browser keeps showing the
// old document until the new one arrives.
type fakeSite struct {
	mu       sync.Mutex
	pages    map[string]string
	current  string
	values   map[string]string
	user     string
	password string
	homeURL  string
	visits   map[string]int
	closed   bool
	navDelay time.Duration
	nav      navWatch
}

func newFakeSite(pages map[string]string, homeURL, user, password string) *fakeSite {
	return &fakeSite{
		pages:    pages,
		values:   map[string]string{},
		user:     user,
		password: password,
		homeURL:  homeURL,
		visits:   map[string]int{},
	}
}

// fakeGrace stands in for navigationGrace so non-navigating clicks settle fast
const fakeGrace = 50 * time.Millisecond

func (s *fakeSite) goTo(url string) error {
	if _, ok := s.pages[url]; !ok {
		return fmt.Errorf("404: %s", url)
	}
	s.current = url
	s.visits[url]++
	return nil
}

// follow loads url as the result of a click, after navDelay when set
func (s *fakeSite) follow(url string) error {
	if _, ok := s.pages[url]; !ok {
		return fmt.Errorf("404: %s", url)
	}
	s.nav.navigationStarted()
	if s.navDelay == 0 {
		_ = s.goTo(url)
		s.nav.loadFinished()
		return nil
	}
	go func() {
		time.Sleep(s.navDelay)
		s.mu.Lock()
		_ = s.goTo(url)
		s.mu.Unlock()
		s.nav.loadFinished()
	}()
	return nil
}

func (s *fakeSite) page() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[s.current]
}

func (s *fakeSite) doc() *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.page()))
	if err != nil {
		panic(err)
	}
	return doc
}

func (s *fakeSite) submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var gotUser, gotPass bool
	for _, v := range s.values {
		gotUser = gotUser || v == s.user
		gotPass = gotPass || v == s.password
	}
	if gotUser && gotPass {
		return s.follow(s.homeURL)
	}
	return s.follow(s.current)
}

func (s *fakeSite) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goTo(url)
}

func (s *fakeSite) Content(ctx context.Context) (string, error) {
	return s.page(), ctx.Err()
}

func (s *fakeSite) URL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, ctx.Err()
}

func (s *fakeSite) Count(ctx context.Context, selector string) (int, error) {
	return s.doc().Find(selector).Length(), ctx.Err()
}

func (s *fakeSite) Fill(ctx context.Context, selector, value string) error {
	el := s.doc().Find(selector).First()
	if el.Length() == 0 {
		return fmt.Errorf("no element for %s", selector)
	}
	key, ok := el.Attr("name")
	if !ok {
		key, _ = el.Attr("id")
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeSite) Click(ctx context.Context, selector string) error {
	el := s.doc().Find(selector).First()
	if el.Length() == 0 {
		return fmt.Errorf("no element for %s", selector)
	}
	s.nav.arm()
	return s.activate(el)
}

func (s *fakeSite) Press(ctx context.Context, selector, key string) error {
	if s.doc().Find(selector).Length() == 0 {
		return fmt.Errorf("no element for %s", selector)
	}
	s.nav.arm()
	if key == "Enter" {
		return s.submit()
	}
	return nil
}

func (s *fakeSite) Affordances(ctx context.Context) ([]string, error) {
	var texts []string
	s.doc().Find(affordanceSelector).Each(func(_ int, el *goquery.Selection) {
		text := common.NormalizeText(el.Text())
		if text == "" {
			text, _ = el.Attr("value")
		}
		texts = append(texts, text)
	})
	return texts, ctx.Err()
}

func (s *fakeSite) ClickAffordance(ctx context.Context, index int) error {
	el := s.doc().Find(affordanceSelector).Eq(index)
	if el.Length() == 0 {
		return fmt.Errorf("no clickable control at index %d", index)
	}
	s.nav.arm()
	return s.activate(el)
}

func (s *fakeSite) activate(el *goquery.Selection) error {
	if href, ok := el.Attr("href"); ok && href != "#" {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.follow(href)
	}
	t, hasType := el.Attr("type")
	if t == "submit" || t == "image" || (goquery.NodeName(el) == "button" && !hasType) {
		return s.submit()
	}
	return nil
}

func (s *fakeSite) WaitStable(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.nav.wait(waitCtx, min(fakeGrace, timeout))
}

func (s *fakeSite) Close() error {
	s.closed = true
	return nil
}

// Page builders

func loginPage(form string) string {
	return `<html><body><h1>WonderDesk</h1><form method="post">` + form + `</form></body></html>`
}

const standardLoginForm = `
<input type="text" name="username">
<input type="password" name="password">
<input type="submit" value="Login">`

type listingRow struct {
	id      string
	date    string
	subject string
}

func listingPage(calls int, rows []listingRow, pager string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	b.WriteString(`<table><tr><td><a href="` + testBaseURL + `/wonderdesk.cgi?do=home">Home</a></td>`)
	b.WriteString(`<td><a href="` + testBaseURL + `/wonderdesk.cgi?do=hd_list&amp;help_status=Closed">List Closed</a></td></tr></table>`)
	if calls >= 0 {
		fmt.Fprintf(&b, `<p>%d Calls</p>`, calls)
	}
	b.WriteString(`<table>`)
	b.WriteString(`<tr><th></th><th>ID</th><th>Date</th><th>Status</th><th>Owner</th><th>Subject</th></tr>`)
	for _, r := range rows {
		fmt.Fprintf(&b, `<tr><td></td><td>%s</td><td>%s</td><td>-</td><td>ops</td><td><a href="#">%s</a></td></tr>`, r.id, r.date, r.subject)
	}
	b.WriteString(`</table>`)
	b.WriteString(pager)
	b.WriteString(`</body></html>`)
	return b.String()
}

func pagerLink(url, label string) string {
	return `<a href="` + strings.ReplaceAll(url, "&", "&amp;") + `">` + label + `</a> `
}
