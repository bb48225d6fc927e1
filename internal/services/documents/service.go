package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/pdf"
)

// Renderer turns markdown into PDF bytes with stamped properties.
type Renderer interface {
	RenderMarkdown(markdown string, meta pdf.Metadata) ([]byte, error)
}

// Service implements interfaces.DocumentService: it renders a
// question/answer report, verifies it, and uploads it to blob storage.
type Service struct {
	renderer     Renderer
	blob         interfaces.BlobStorage
	logger       arbor.ILogger
	templatesDir string
	blobPrefix   string
}

// Compile-time interface check
var _ interfaces.DocumentService = (*Service)(nil)

// NewService creates a document service. blobPrefix defaults to
// "ddq_responses" when empty.
func NewService(renderer Renderer, blob interfaces.BlobStorage, logger arbor.ILogger, templatesDir, blobPrefix string) *Service {
	if blobPrefix == "" {
		blobPrefix = "ddq_responses"
	}
	return &Service{
		renderer:     renderer,
		blob:         blob,
		logger:       logger,
		templatesDir: templatesDir,
		blobPrefix:   blobPrefix,
	}
}

// templateData is the context available to named report templates.
type templateData struct {
	Question string
	Answer   string
	Sources  []string
	Date     string
}

// Generate builds the report PDF and uploads it. templateName selects
// {templates_dir}/{name}.md as the rendering base when it exists;
// otherwise the default layout is synthesized. All failures wrap
// ErrDocumentGeneration.
func (s *Service) Generate(ctx context.Context, question, answer string, sources []string, templateName string) (*models.GeneratedDocument, error) {
	markdown, usedTemplate := s.buildMarkdown(question, answer, sources, templateName)

	s.logger.Debug().
		Str("template", usedTemplate).
		Int("source_count", len(sources)).
		Msg("Generating report document")

	meta := pdf.Metadata{
		Title:    documentTitle(question),
		Subject:  "Due Diligence Questionnaire",
		Keywords: "DDQ, Due Diligence, AI Response",
	}

	content, err := s.renderer.RenderMarkdown(markdown, meta)
	if err != nil {
		return nil, fmt.Errorf("%w: render: %v", interfaces.ErrDocumentGeneration, err)
	}

	if err := pdf.Verify(content); err != nil {
		return nil, fmt.Errorf("%w: verify: %v", interfaces.ErrDocumentGeneration, err)
	}

	blobName := fmt.Sprintf("%s/%s_%s_%s.pdf",
		s.blobPrefix,
		safeFileName(question),
		time.Now().Format("20060102150405"),
		common.RandomSuffix(4))

	url, err := s.blob.Upload(ctx, content, blobName, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: upload: %v", interfaces.ErrDocumentGeneration, err)
	}

	s.logger.Info().
		Str("blob_name", blobName).
		Int("size", len(content)).
		Msg("Report document uploaded")

	return &models.GeneratedDocument{
		Content:  content,
		BlobName: blobName,
		URL:      url,
	}, nil
}

// buildMarkdown returns the report markdown and the name of the template
// used ("" for the default layout). A missing or broken template falls
// back to the default layout rather than failing the document.
func (s *Service) buildMarkdown(question, answer string, sources []string, templateName string) (string, string) {
	if templateName != "" && s.templatesDir != "" {
		// Base name only, so template selection cannot escape the directory
		name := filepath.Base(templateName)
		path := filepath.Join(s.templatesDir, name+".md")

		raw, err := os.ReadFile(path)
		if err == nil {
			rendered, err := executeTemplate(name, string(raw), templateData{
				Question: question,
				Answer:   answer,
				Sources:  sources,
				Date:     time.Now().Format("2 January 2006"),
			})
			if err == nil {
				return rendered, name
			}
			s.logger.Warn().Err(err).Str("template", name).Msg("Template execution failed, using default layout")
		} else {
			s.logger.Debug().Str("template", name).Msg("Template not found, using default layout")
		}
	}

	return defaultLayout(question, answer, sources), ""
}

func executeTemplate(name, content string, data templateData) (string, error) {
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return sb.String(), nil
}

// defaultLayout synthesizes the standard report markdown.
func defaultLayout(question, answer string, sources []string) string {
	var sb strings.Builder

	sb.WriteString("# Due Diligence Question Response\n\n")
	sb.WriteString("## Question:\n\n")
	sb.WriteString("**" + question + "**\n\n")
	sb.WriteString("## Answer:\n\n")
	sb.WriteString(answer + "\n\n")
	sb.WriteString("## Sources Consulted:\n\n")
	if len(sources) > 0 {
		for _, source := range sources {
			sb.WriteString("- " + source + "\n")
		}
	} else {
		sb.WriteString("No specific documents were cited for this response.\n")
	}

	return sb.String()
}

// documentTitle builds the stamped document title from the question,
// truncated to 50 characters.
func documentTitle(question string) string {
	runes := []rune(question)
	if len(runes) > 50 {
		return "DDQ Response: " + string(runes[:50]) + "..."
	}
	return "DDQ Response: " + question
}

// safeFileName derives a filesystem-safe name from the first 30
// characters of the question: letters, digits, spaces, underscores, and
// hyphens are kept, then spaces become underscores.
func safeFileName(question string) string {
	runes := []rune(question)
	if len(runes) > 30 {
		runes = runes[:30]
	}

	var sb strings.Builder
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			sb.WriteRune(r)
		}
	}

	return strings.ReplaceAll(strings.TrimSpace(sb.String()), " ", "_")
}
