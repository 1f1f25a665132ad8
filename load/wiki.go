package load

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// The wiki converter turns a Wikipedia XML dump into three pipe-separated
// dumps: page.tbl, revision.tbl, and content.tbl. Free text has '|' folded
// to '~', '"' to '\'', and newlines to spaces.

type wikiRevision struct {
	ID     int64  `xml:"id"`
	Parent int64  `xml:"parentid"`
	Text   string `xml:"text"`
}

type wikiPage struct {
	Title     string         `xml:"title"`
	ID        int64          `xml:"id"`
	Revisions []wikiRevision `xml:"revision"`
}

var freeTextCleaner = strings.NewReplacer("|", "~", "\"", "'", "\n", " ")

// ConvertWiki streams pages out of the dump; every revision contributes one
// revision row and one content row keyed by the revision id.
func ConvertWiki(in io.Reader, pageW, revisionW, contentW io.Writer) (int, error) {
	decoder := xml.NewDecoder(in)

	pages := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return pages, nil
		} else if err != nil {
			return pages, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}

		var page wikiPage
		if err := decoder.DecodeElement(&page, &start); err != nil {
			return pages, err
		}

		_, err = fmt.Fprintf(pageW, "%d|%s\n", page.ID, freeTextCleaner.Replace(page.Title))
		if err != nil {
			return pages, err
		}
		for _, rev := range page.Revisions {
			_, err = fmt.Fprintf(contentW, "%d|%s\n", rev.ID, freeTextCleaner.Replace(rev.Text))
			if err != nil {
				return pages, err
			}
			_, err = fmt.Fprintf(revisionW, "%d|%d|%d|%d\n", rev.ID, rev.Parent, page.ID, rev.ID)
			if err != nil {
				return pages, err
			}
		}
		pages++
	}
}
