package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"

	"github.com/ternarybob/arbor"
	"golang.org/x/net/html"
)

const (
	PageTypeLogin   = "login"
	PageTypeListing = "listing"
	PageTypeGeneric = "generic"
	PageTypeUnknown = "unknown"
)

var callsBannerRegex = regexp.MustCompile(`\b(\d+)\s+Calls\b`)

type pageAssessor struct {
	logger arbor.ILogger
}

// NewPageAssessor creates a new page assessment service
func NewPageAssessor(logger arbor.ILogger) interfaces.PageAssessor {
	return &pageAssessor{
		logger: logger,
	}
}

// AssessPage classifies a helpdesk page and reads the listing's calls banner
func (pa *pageAssessor) AssessPage(htmlContent, url string) (*models.PageAssessment, error) {
	assessment := &models.PageAssessment{
		PageType:    PageTypeUnknown,
		Confidence:  "low",
		Description: "Page type could not be determined",
		Indicators:  []string{},
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		pa.logger.Warn().Err(err).Msg("Failed to parse HTML for assessment")
		return assessment, nil
	}

	assessment.Indicators = append(assessment.Indicators, pa.checkURLPatterns(url)...)
	assessment.Indicators = append(assessment.Indicators, pa.checkHTMLStructure(doc)...)

	if total, ok := CallsTotal(doc); ok {
		assessment.CallsTotal = total
		assessment.HasCalls = true
		assessment.Indicators = append(assessment.Indicators, "html_structure:calls_banner")
	}

	assessment.PageType = pa.determinePageType(assessment.Indicators)
	assessment.Confidence = pa.calculateConfidence(assessment.Indicators)
	assessment.Description = pa.getPageDescription(assessment.PageType)

	pa.logger.Debug().
		Str("page_type", assessment.PageType).
		Str("confidence", assessment.Confidence).
		Str("calls", fmt.Sprintf("%v", assessment.HasCalls)).
		Int("indicators", len(assessment.Indicators)).
		Msg("Page assessment completed")

	return assessment, nil
}

// CallsTotal reads the "<n> Calls" banner a listing shows above its table
func CallsTotal(doc *html.Node) (int, bool) {
	m := callsBannerRegex.FindStringSubmatch(common.ExtractText(doc))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (pa *pageAssessor) checkURLPatterns(url string) []string {
	indicators := []string{}
	lower := strings.ToLower(url)

	if strings.Contains(lower, "wonderdesk.cgi") {
		indicators = append(indicators, "url_pattern:wonderdesk")
	}
	if strings.Contains(lower, "do=hd_list") {
		indicators = append(indicators, "url_pattern:listing")
	}
	if strings.Contains(lower, "help_status=closed") {
		indicators = append(indicators, "url_pattern:closed_listing")
	}

	return indicators
}

func (pa *pageAssessor) checkHTMLStructure(doc *html.Node) []string {
	indicators := []string{}

	passwordFields := 0
	wideRows := 0

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input":
				if strings.EqualFold(common.GetAttribute(n, "type"), "password") {
					passwordFields++
				}
			case "tr":
				cells := 0
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
						cells++
					}
				}
				if cells >= minListingCells {
					wideRows++
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	if passwordFields > 0 {
		indicators = append(indicators, "html_structure:password_field")
	}
	if wideRows >= 3 {
		indicators = append(indicators, "html_structure:ticket_rows")
		pa.logger.Trace().Int("count", wideRows).Msg("Found wide table rows")
	}

	return indicators
}

// minListingCells is the narrowest row a ticket listing renders
const minListingCells = 6

func (pa *pageAssessor) determinePageType(indicators []string) string {
	has := make(map[string]bool, len(indicators))
	for _, indicator := range indicators {
		has[indicator] = true
	}

	if has["html_structure:password_field"] {
		return PageTypeLogin
	}
	if has["html_structure:calls_banner"] || has["html_structure:ticket_rows"] || has["url_pattern:listing"] {
		return PageTypeListing
	}
	if has["url_pattern:wonderdesk"] {
		return PageTypeGeneric
	}
	return PageTypeUnknown
}

func (pa *pageAssessor) calculateConfidence(indicators []string) string {
	if len(indicators) == 0 {
		return "none"
	}

	urlIndicators := 0
	htmlIndicators := 0
	for _, indicator := range indicators {
		if strings.HasPrefix(indicator, "url_pattern:") {
			urlIndicators++
		}
		if strings.HasPrefix(indicator, "html_structure:") {
			htmlIndicators++
		}
	}

	if urlIndicators > 0 && htmlIndicators > 0 {
		return "high"
	}
	if urlIndicators > 0 || htmlIndicators > 0 {
		return "medium"
	}
	return "low"
}

func (pa *pageAssessor) getPageDescription(pageType string) string {
	descriptions := map[string]string{
		PageTypeLogin:   "WonderDesk login form",
		PageTypeListing: "WonderDesk ticket listing",
		PageTypeGeneric: "WonderDesk page without a ticket listing",
		PageTypeUnknown: "Unknown page type",
	}

	if desc, ok := descriptions[pageType]; ok {
		return desc
	}
	return "Unknown page type"
}
