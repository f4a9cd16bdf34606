package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"aktis-collector-wonderdesk/internal/aggregate"
	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"
)

const (
	loginPath         = "/wonderdesk.cgi"
	closedListingPath = "/wonderdesk.cgi?do=hd_list&help_status=Closed"
	passwordSelector  = "input[type='password']"
)

var userSelectors = []string{
	"input[name*='user' i]",
	"input[name*='login' i]",
	"input[type='email']",
	"input[type='text']",
	"input:not([type])",
}

var submitSelectors = []string{
	"input[type='submit']",
	"button[type='submit']",
	"input[type='image']",
}

var (
	userLabelRegex     = regexp.MustCompile(`(?i)^(user|usuario)`)
	passwordLabelRegex = regexp.MustCompile(`(?i)^(password|clave|contraseña)`)
)

// Navigator moves a session through the helpdesk: login, menus and pagination
type Navigator struct {
	driver   interfaces.SessionDriver
	assessor interfaces.PageAssessor
	cfg      *common.HelpdeskConfig
	logger   arbor.ILogger
}

func NewNavigator(driver interfaces.SessionDriver, assessor interfaces.PageAssessor, cfg *common.HelpdeskConfig, logger arbor.ILogger) *Navigator {
	return &Navigator{
		driver:   driver,
		assessor: assessor,
		cfg:      cfg,
		logger:   logger,
	}
}

func (n *Navigator) url(path string) string {
	return strings.TrimRight(n.cfg.BaseURL, "/") + path
}

// Open navigates to url within the navigation timeout
func (n *Navigator) Open(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, n.cfg.NavigationTimeout())
	defer cancel()

	if err := n.driver.Navigate(navCtx, url); err != nil {
		return navigationError(ctx, err, "NAVIGATE", "failed to open page").WithContext("url", url)
	}
	n.settle(ctx)
	return nil
}

// settle waits for the page to quiet down; a timeout is not an error
func (n *Navigator) settle(ctx context.Context) {
	if err := n.driver.WaitStable(ctx, n.cfg.SettleTimeout()); err != nil && ctx.Err() == nil {
		n.logger.Debug().Err(err).Msg("Page did not settle before timeout")
	}
}

// Login signs the tenant in and checks the resulting page is no longer the login form
func (n *Navigator) Login(ctx context.Context, tenant models.TenantContext) error {
	if err := n.Open(ctx, n.url(loginPath)); err != nil {
		return err
	}

	userSel, err := n.firstPresent(ctx, userSelectors)
	if err != nil {
		return err
	}
	passSel, err := n.firstPresent(ctx, []string{passwordSelector})
	if err != nil {
		return err
	}

	if userSel == "" || passSel == "" {
		labelledUser, labelledPass := n.labelledInputs(ctx)
		if userSel == "" {
			userSel = labelledUser
		}
		if passSel == "" {
			passSel = labelledPass
		}
	}
	if userSel == "" || passSel == "" {
		return common.NewAuthError("LOGIN_FORM_MISSING", "login form not found").WithContext("tenant", tenant.Code)
	}

	if err := n.fill(ctx, userSel, tenant.Credentials.Username); err != nil {
		return err
	}
	if err := n.fill(ctx, passSel, tenant.Credentials.Password); err != nil {
		return err
	}

	if err := n.submit(ctx, passSel); err != nil {
		return err
	}
	n.settle(ctx)

	assessment, err := n.Assess(ctx)
	if err != nil {
		return err
	}
	if assessment.PageType == PageTypeLogin {
		return common.NewAuthError("LOGIN_FAILED", "login form still present after submit").WithContext("tenant", tenant.Code)
	}

	n.logger.Info().Str("tenant", tenant.Code).Msg("Logged in")
	return nil
}

func (n *Navigator) count(ctx context.Context, selector string) (int, error) {
	opCtx, cancel := context.WithTimeout(ctx, n.cfg.ClickTimeout())
	defer cancel()
	return n.driver.Count(opCtx, selector)
}

// firstPresent returns the first selector matching at least one element
func (n *Navigator) firstPresent(ctx context.Context, selectors []string) (string, error) {
	for _, sel := range selectors {
		c, err := n.count(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			n.logger.Trace().Err(err).Str("selector", sel).Msg("Selector lookup failed")
			continue
		}
		if c > 0 {
			return sel, nil
		}
	}
	return "", nil
}

// labelledInputs resolves the login fields through <label for="..."> text
func (n *Navigator) labelledInputs(ctx context.Context) (user, pass string) {
	opCtx, cancel := context.WithTimeout(ctx, n.cfg.ClickTimeout())
	defer cancel()

	content, err := n.driver.Content(opCtx)
	if err != nil {
		return "", ""
	}
	return LabelledInputs(content)
}

// LabelledInputs finds the user and password inputs named by label text
func LabelledInputs(content string) (user, pass string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", ""
	}

	doc.Find("label[for]").Each(func(_ int, s *goquery.Selection) {
		target, _ := s.Attr("for")
		if target == "" {
			return
		}
		text := common.NormalizeText(s.Text())
		sel := `[id="` + strings.ReplaceAll(target, `"`, `\"`) + `"]`

		switch {
		case user == "" && userLabelRegex.MatchString(text):
			user = sel
		case pass == "" && passwordLabelRegex.MatchString(text):
			pass = sel
		}
	})
	return user, pass
}

func (n *Navigator) fill(ctx context.Context, selector, value string) error {
	opCtx, cancel := context.WithTimeout(ctx, n.cfg.ClickTimeout())
	defer cancel()

	if err := n.driver.Fill(opCtx, selector, value); err != nil {
		return navigationError(ctx, err, "FILL", "could not fill login field").WithContext("selector", selector)
	}
	return nil
}

// submit tries submit controls, then labelled affordances, then Enter in the password field
func (n *Navigator) submit(ctx context.Context, passSel string) error {
	for _, sel := range submitSelectors {
		c, err := n.count(ctx, sel)
		if err != nil || c == 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		opCtx, cancel := context.WithTimeout(ctx, n.cfg.ClickTimeout())
		err = n.driver.Click(opCtx, sel)
		cancel()
		if err == nil {
			return nil
		}
		n.logger.Debug().Err(err).Str("selector", sel).Msg("Submit click failed, trying next")
	}

	clicked, err := n.Follow(ctx, AffordanceSubmit)
	if err != nil {
		return err
	}
	if clicked {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, n.cfg.ClickTimeout())
	defer cancel()
	if err := n.driver.Press(opCtx, passSel, "Enter"); err != nil {
		return navigationError(ctx, err, "SUBMIT", "no way to submit the login form")
	}
	return nil
}

// Follow clicks the affordance of the given kind. It reports false when the
// page has none or the click does not complete in time.
func (n *Navigator) Follow(ctx context.Context, kind Affordance) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, n.cfg.ClickTimeout())
	defer cancel()

	texts, err := n.driver.Affordances(opCtx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		n.logger.Debug().Err(err).Str("affordance", string(kind)).Msg("Could not list page controls")
		return false, nil
	}

	index, ok := MatchAffordance(texts, kind)
	if !ok {
		return false, nil
	}

	if err := n.driver.ClickAffordance(opCtx, index); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		n.logger.Warn().Err(err).Str("affordance", string(kind)).Msg("Click did not complete")
		return false, nil
	}

	n.logger.Trace().Str("affordance", string(kind)).Str("label", texts[index]).Msg("Followed")
	n.settle(ctx)
	return true, nil
}

// GoHome opens the landing listing of open tickets
func (n *Navigator) GoHome(ctx context.Context) error {
	ok, err := n.Follow(ctx, AffordanceHome)
	if err != nil {
		return err
	}
	if ok {
		listing, err := n.onListing(ctx)
		if err != nil || listing {
			return err
		}
		n.logger.Debug().Msg("Home control did not lead to a listing, opening landing page")
	} else {
		n.logger.Debug().Msg("Home control not found, opening landing page")
	}
	if err := n.Open(ctx, n.url(loginPath)); err != nil {
		return err
	}
	return n.requireListing(ctx, "open")
}

// GoClosed opens the closed tickets listing, falling back to its URL
func (n *Navigator) GoClosed(ctx context.Context) error {
	ok, err := n.Follow(ctx, AffordanceClosed)
	if err != nil {
		return err
	}
	if ok {
		listing, err := n.onListing(ctx)
		if err != nil || listing {
			return err
		}
		n.logger.Warn().Msg("Closed listing control did not lead to a listing, using direct URL")
	} else {
		n.logger.Warn().Msg("Closed listing control not found, using direct URL")
	}
	if err := n.Open(ctx, n.url(closedListingPath)); err != nil {
		return err
	}
	return n.requireListing(ctx, "closed")
}

// onListing reports whether the current page assesses as a ticket listing
func (n *Navigator) onListing(ctx context.Context) (bool, error) {
	assessment, err := n.Assess(ctx)
	if err != nil {
		return false, err
	}
	return assessment.PageType == PageTypeListing, nil
}

// requireListing fails unless the current page is a ticket listing. Landing
// on the login form means the session was lost.
func (n *Navigator) requireListing(ctx context.Context, which string) error {
	assessment, err := n.Assess(ctx)
	if err != nil {
		return err
	}
	switch assessment.PageType {
	case PageTypeListing:
		return nil
	case PageTypeLogin:
		return common.NewAuthError("SESSION_LOST", "helpdesk returned to the login form").WithContext("listing", which)
	default:
		return common.NewNavigationError("NOT_LISTING", "page is not a ticket listing").
			WithDetails(assessment.Description).
			WithContext("listing", which)
	}
}

// Assess classifies the current page and reads its calls banner
func (n *Navigator) Assess(ctx context.Context) (*models.PageAssessment, error) {
	opCtx, cancel := context.WithTimeout(ctx, n.cfg.NavigationTimeout())
	defer cancel()

	content, err := n.driver.Content(opCtx)
	if err != nil {
		return nil, navigationError(ctx, err, "CONTENT", "could not read page")
	}
	url, err := n.driver.URL(opCtx)
	if err != nil {
		return nil, navigationError(ctx, err, "CONTENT", "could not read page url")
	}
	return n.assessor.AssessPage(content, url)
}

// ListingCount reads the calls banner of the current listing, if shown
func (n *Navigator) ListingCount(ctx context.Context) (aggregate.ListingCount, error) {
	assessment, err := n.Assess(ctx)
	if err != nil {
		return aggregate.ListingCount{}, err
	}
	return aggregate.ListingCount{Value: assessment.CallsTotal, Known: assessment.HasCalls}, nil
}

// navigationError keeps caller cancellation as is and wraps everything else
func navigationError(ctx context.Context, err error, code, message string) *common.CollectorError {
	if ctx.Err() != nil {
		return common.WrapError(ctx.Err(), common.ErrorTypeNavigation, "CANCELLED", message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		code = "TIMEOUT"
	}
	return common.WrapError(err, common.ErrorTypeNavigation, code, message)
}
