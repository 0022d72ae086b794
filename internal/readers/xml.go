package readers

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/scan-io-git/scanio-merge/internal/sanitize"
	scerrors "github.com/scan-io-git/scanio-merge/pkg/shared/errors"
)

// openReport stats and opens a report file, mapping a missing path to NotFoundError.
func openReport(format Format, path string) (*os.File, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, scerrors.NewNotFoundError(path)
	}
	if err != nil {
		return nil, scerrors.NewParseError(string(format), path, err)
	}
	if info.IsDir() {
		return nil, scerrors.NewParseError(string(format), path, fmt.Errorf("expected a file, got a directory"))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, scerrors.NewParseError(string(format), path, err)
	}
	return file, nil
}

// loadDocument parses an XML report and checks its root element.
// When sanitized is set, the stream goes through the quoted-markup repair first.
func loadDocument(format Format, path, rootTag string, sanitized bool) (*etree.Document, error) {
	file, err := openReport(format, path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if sanitized {
		r, err = sanitize.QuotedMarkup(file)
		if err != nil {
			return nil, scerrors.NewParseError(string(format), path, err)
		}
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, scerrors.NewParseError(string(format), path, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, scerrors.NewParseError(string(format), path, fmt.Errorf("document is empty"))
	}
	if root.Tag != rootTag {
		return nil, scerrors.NewParseError(string(format), path, fmt.Errorf("unexpected root element <%s>, want <%s>", root.Tag, rootTag))
	}
	return doc, nil
}

// requiredAttr returns a non-empty attribute value or an error naming the element.
func requiredAttr(el *etree.Element, key string) (string, error) {
	v := strings.TrimSpace(el.SelectAttrValue(key, ""))
	if v == "" {
		return "", fmt.Errorf("<%s> at %s is missing attribute %q", el.Tag, el.GetPath(), key)
	}
	return v, nil
}

// intAttr reads an optional integer attribute; absent means zero.
func intAttr(el *etree.Element, key string) (int, error) {
	v := strings.TrimSpace(el.SelectAttrValue(key, ""))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("<%s> attribute %q: %q is not an integer", el.Tag, key, v)
	}
	return n, nil
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}
