// Package docs converts Zig release documentation from HTML into the
// split and consolidated markdown layouts the reference bundle ships.
// Conversion splits a single-page documentation build into one file per
// top-level section; consolidation merges those files into themed
// references.
package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/toolchain"
)

// Section is one top-level chapter of a documentation page
type Section struct {
	Number   int
	ID       string
	Title    string
	Filename string
}

var (
	slugInvalidPattern = regexp.MustCompile(`[^\w\s-]`)
	slugSpacingPattern = regexp.MustCompile(`[-\s]+`)

	excessBlankPattern   = regexp.MustCompile(`\n{4,}`)
	headerTOCLinkPattern = regexp.MustCompile(`(?m)^(#{1,6})\s*\[(.*?)\]\(#toc-[^)]*\)`)
	anchorLinkPattern    = regexp.MustCompile(`\[([^\]]*)\]\(#([^)]+)\)`)
)

// Converter turns a Zig documentation HTML page into per-section
// markdown files
type Converter struct {
	md *md.Converter
}

// NewConverter creates a converter configured for the Zig documentation
// markup, including the figure-wrapped code listings and aside notes
func NewConverter() *Converter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	conv.AddRules(figureRule(), asideRule(), captionRule())

	return &Converter{md: conv}
}

// figureRule renders <figure> code listings as fenced blocks. The
// figcaption class carries the language and an optional cite carries
// the file name.
func figureRule() md.Rule {
	return md.Rule{
		Filter: []string{"figure"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			pre := selec.Find("pre").First()
			if pre.Length() == 0 {
				return md.String(content)
			}

			language := "zig"
			var label string

			caption := selec.Find("figcaption").First()
			if caption.Length() > 0 {
				class := caption.AttrOr("class", "")
				switch {
				case strings.Contains(class, "shell-cap"):
					language = "shell"
				case strings.Contains(class, "peg-cap"):
					language = "peg"
				case strings.Contains(class, "javascript-cap"):
					language = "javascript"
				case strings.Contains(class, "c-cap"):
					language = "c"
				}

				if cite := caption.Find("cite").First(); cite.Length() > 0 {
					label = fmt.Sprintf("**`%s`:**\n", strings.TrimSpace(cite.Text()))
				} else if text := strings.TrimSpace(caption.Text()); text != "" && language == "zig" {
					label = fmt.Sprintf("**%s:**\n", text)
				}
			}

			code := strings.Trim(pre.Text(), "\n")
			return md.String(fmt.Sprintf("\n%s```%s\n%s\n```\n\n", label, language, code))
		},
	}
}

// asideRule renders <aside> elements as note blockquotes
func asideRule() md.Rule {
	return md.Rule{
		Filter: []string{"aside"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			return md.String(fmt.Sprintf("\n> **Note:** %s\n\n", strings.TrimSpace(content)))
		},
	}
}

// captionRule drops table captions, which duplicate the section heading
func captionRule() md.Rule {
	return md.Rule{
		Filter: []string{"caption"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			return md.String("")
		},
	}
}

// ConvertPath converts a single HTML file, or every HTML file in a
// directory, writing the split markdown under outputDir. When version
// is empty it is inferred from the input path.
func (c *Converter) ConvertPath(ctx context.Context, inputPath, outputDir, version string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		return errors.Errorf("input not found: %s", inputPath)
	}

	if !info.IsDir() {
		return c.ConvertFile(ctx, inputPath, outputDir, version)
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return errors.Wrap(err, "failed to read input directory")
	}

	converted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".html" && ext != ".htm" {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if err := c.ConvertFile(ctx, filepath.Join(inputPath, entry.Name()), filepath.Join(outputDir, stem), version); err != nil {
			return errors.Wrapf(err, "failed to convert %s", entry.Name())
		}
		converted++
	}

	if converted == 0 {
		return errors.Errorf("no HTML files found in %s", inputPath)
	}
	return nil
}

// ConvertFile converts one HTML documentation page
func (c *Converter) ConvertFile(ctx context.Context, path, outputDir, version string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	if version == "" {
		version = inferVersion(path)
	}

	_, err = c.Convert(ctx, string(content), outputDir, version)
	return err
}

// Convert splits an HTML documentation page into per-section markdown
// files plus a README index, returning the section list
func (c *Converter) Convert(ctx context.Context, htmlContent, outputDir, version string) ([]Section, error) {
	log := logger.G(ctx)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}

	// Drop the § permalink markers before conversion
	doc.Find("a.hdr").Remove()

	sections := parseTOC(doc)
	if len(sections) == 0 {
		return nil, errors.New("no sections found in table of contents")
	}
	log.WithField("sections", len(sections)).Debug("Parsed table of contents")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	written := 0
	for _, section := range sections {
		header := findSectionHeader(doc, section.ID)
		if header == nil {
			log.WithField("section", section.Title).Warn("No content found for section")
			continue
		}

		markdown, err := c.md.ConvertString(extractSectionHTML(header))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to convert section %s", section.Title)
		}

		markdown = cleanMarkdown(markdown)
		markdown = fixCrossFileLinks(markdown, section.Filename, sections)

		path := filepath.Join(outputDir, section.Filename)
		if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", section.Filename)
		}

		log.WithField("file", section.Filename).Debug("Converted section")
		written++
	}

	if err := writeReadme(sections, outputDir, version); err != nil {
		return nil, err
	}

	log.WithField("sections", written).WithField("dir", outputDir).Info("Documentation converted")
	return sections, nil
}

// parseTOC extracts the top-level section structure from the page's
// table of contents. Release pages since 0.9.1 use a nav landmark;
// older releases used a handful of container div ids.
func parseTOC(doc *goquery.Document) []Section {
	nav := doc.Find("nav[aria-labelledby='table-of-contents']").First()
	for _, selector := range []string{"div#toc", "div#index", "div#nav"} {
		if nav.Length() > 0 {
			break
		}
		nav = doc.Find(selector).First()
	}
	if nav.Length() == 0 {
		return nil
	}

	list := nav.Find("ul").First()
	if list.Length() == 0 {
		return nil
	}

	var sections []Section
	number := 1
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		link := li.Find("a").First()
		if link.Length() == 0 {
			return
		}

		href := link.AttrOr("href", "")
		if !strings.HasPrefix(href, "#") {
			return
		}

		title := strings.TrimSpace(link.Text())
		sections = append(sections, Section{
			Number:   number,
			ID:       strings.TrimPrefix(href, "#"),
			Title:    title,
			Filename: fmt.Sprintf("%02d-%s.md", number, slugify(title)),
		})
		number++
	})

	return sections
}

// findSectionHeader locates the heading element for a section id,
// falling back through the id conventions of older release pages
func findSectionHeader(doc *goquery.Document, sectionID string) *goquery.Selection {
	for _, tag := range []string{"h2", "h1"} {
		sel := doc.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
			id := s.AttrOr("id", "")
			return id == sectionID || id == "toc-"+sectionID
		})
		if sel.Length() > 0 {
			return sel.First()
		}
	}

	sel := doc.Find("h1").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("a[href='#"+sectionID+"']").Length() > 0 ||
			s.Find("a[href='#toc-"+sectionID+"']").Length() > 0
	})
	if sel.Length() > 0 {
		return sel.First()
	}
	return nil
}

// extractSectionHTML renders a section heading plus every sibling up to
// the next heading of the same or higher level
func extractSectionHTML(header *goquery.Selection) string {
	stop := "h1"
	if goquery.NodeName(header) == "h2" {
		stop = "h1, h2"
	}

	var b strings.Builder
	appendOuterHTML(&b, header)
	header.NextUntil(stop).Each(func(_ int, s *goquery.Selection) {
		appendOuterHTML(&b, s)
	})
	return b.String()
}

func appendOuterHTML(b *strings.Builder, s *goquery.Selection) {
	if html, err := goquery.OuterHtml(s); err == nil {
		b.WriteString(html)
	}
}

// cleanMarkdown normalizes converted output: collapses runs of blank
// lines, strips TOC artifacts from headings, and ensures a single
// trailing newline
func cleanMarkdown(content string) string {
	content = excessBlankPattern.ReplaceAllString(content, "\n\n\n")
	content = headerTOCLinkPattern.ReplaceAllString(content, "$1 $2")
	return strings.TrimSpace(content) + "\n"
}

// fixCrossFileLinks rewrites anchor links that target a section living
// in another output file to include that file name
func fixCrossFileLinks(content, currentFile string, sections []Section) string {
	return anchorLinkPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := anchorLinkPattern.FindStringSubmatch(match)
		text, sectionID := m[1], m[2]
		sectionID = strings.TrimPrefix(sectionID, "toc-")

		var targetFile string
		for _, s := range sections {
			if s.ID == sectionID || strings.HasPrefix(sectionID, s.ID) {
				targetFile = s.Filename
				break
			}
		}

		if targetFile != "" && targetFile != currentFile {
			return fmt.Sprintf("[%s](%s#%s)", text, targetFile, sectionID)
		}
		return fmt.Sprintf("[%s](#%s)", text, sectionID)
	})
}

// writeReadme emits the README.md index for a converted documentation set
func writeReadme(sections []Section, outputDir, version string) error {
	versionDisplay := "Master Branch"
	if version != "master" && version != "" {
		versionDisplay = "Version " + version
	}
	if version == "" {
		version = "master"
	}
	sourceURL := fmt.Sprintf("https://ziglang.org/documentation/%s/", version)

	var b strings.Builder
	fmt.Fprintf(&b, "# Zig Programming Language Documentation (%s)\n\n", versionDisplay)
	fmt.Fprintf(&b, "This documentation has been automatically converted from the official Zig documentation at %s\n\n", sourceURL)
	b.WriteString("## Table of Contents\n\n")

	for _, s := range sections {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", s.Number, s.Title, s.Filename)
	}

	fmt.Fprintf(&b, `
## About This Documentation

This is a structured, split version of the Zig documentation optimized for navigation and reference.
Each major section has been extracted into its own markdown file for easier browsing.

**Version:** %s

**Source:** [Official Zig Documentation](%s)

**Generated with:** zigskill docs convert
`, versionDisplay, sourceURL)

	return errors.Wrap(os.WriteFile(filepath.Join(outputDir, "README.md"), []byte(b.String()), 0644), "failed to write README.md")
}

// inferVersion looks for a known release number in the input path
func inferVersion(path string) string {
	for _, v := range toolchain.SupportedVersions {
		if v == "master" {
			continue
		}
		if strings.Contains(path, v) {
			return v
		}
	}
	return "master"
}

// slugify converts a section title to a file-name-safe slug
func slugify(text string) string {
	slug := slugInvalidPattern.ReplaceAllString(strings.ToLower(text), "")
	slug = slugSpacingPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
