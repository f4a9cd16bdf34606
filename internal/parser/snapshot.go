package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/models"
)

// SnapshotFromHTML renders every table in content into a PageSnapshot.
// Rows are the table's own rows only; nested tables become separate entries.
func SnapshotFromHTML(url, content string) (*models.PageSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, common.NewExtractionError("HTML_PARSE", "failed to parse page").WithCause(err).WithContext("url", url)
	}

	snapshot := &models.PageSnapshot{URL: url}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		snapshot.Tables = append(snapshot.Tables, tableSnapshot(table))
	})
	return snapshot, nil
}

func tableSnapshot(table *goquery.Selection) models.TableSnapshot {
	var t models.TableSnapshot

	table.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "tr":
			t.Rows = append(t.Rows, rowSnapshot(child))
		case "thead", "tbody", "tfoot":
			child.ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
				t.Rows = append(t.Rows, rowSnapshot(tr))
			})
		}
	})
	return t
}

func rowSnapshot(tr *goquery.Selection) models.RowSnapshot {
	var r models.RowSnapshot
	tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
		c := models.CellSnapshot{Text: common.NormalizeText(cell.Text())}
		if link := cell.Find("a").First(); link.Length() > 0 {
			c.FirstLinkText = common.NormalizeText(link.Text())
		}
		r.Cells = append(r.Cells, c)
	})
	return r
}
