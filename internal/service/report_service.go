package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatText = "txt"
)

type ReportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func ExportReport(report *models.ReportExport, format string) (*ReportFile, error) {
	if report == nil || report.Result == nil {
		return nil, ErrNoResult
	}

	if format == "" {
		format = FormatJSON
	}

	var (
		data        []byte
		contentType string
		err         error
	)

	switch strings.ToLower(format) {
	case FormatJSON:
		data, err = json.MarshalIndent(report, "", "  ")
		contentType = "application/json"
	case FormatCSV:
		data, err = exportCSV(report)
		contentType = "text/csv"
	case FormatText:
		data = exportText(report)
		contentType = "text/plain; charset=utf-8"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}

	return &ReportFile{
		Name:        reportName(report, strings.ToLower(format)),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func reportName(report *models.ReportExport, ext string) string {
	id := report.CheckID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return "plagiarism-report." + ext
	}
	return fmt.Sprintf("plagiarism-report-%s.%s", id, ext)
}

func exportCSV(report *models.ReportExport) ([]byte, error) {
	r := report.Result
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"Metric", "Value"},
		{"Check ID", report.CheckID},
		{"Generated At", report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z")},
		{"Plagiarism Percentage", formatFloat(r.PlagiarismPercentage)},
		{"Level", report.Level.Label()},
		{"Unique Content", formatFloat(r.UniqueContent())},
	}
	if r.SimilarityScore != nil {
		rows = append(rows, []string{"Similarity Score", formatFloat(*r.SimilarityScore)})
	}
	if r.ExactMatch != nil {
		rows = append(rows, []string{"Exact Match", formatFloat(*r.ExactMatch)})
	}
	if r.PartialMatch != nil {
		rows = append(rows, []string{"Partial Match", formatFloat(*r.PartialMatch)})
	}
	if r.TotalWords > 0 {
		rows = append(rows, []string{"Total Words", strconv.Itoa(r.TotalWords)})
	}
	if r.TotalChars > 0 {
		rows = append(rows, []string{"Total Characters", strconv.Itoa(r.TotalChars)})
	}

	if len(r.Sources) > 0 {
		rows = append(rows, []string{}, []string{"Source", "URL", "Percentage"})
		for _, src := range r.Sources {
			rows = append(rows, []string{src.Title, src.URL, formatFloat(src.Percentage)})
		}
	}

	if len(r.ResultsDetails) > 0 {
		rows = append(rows, []string{}, []string{"Sentence", "Plagiarized", "Source URL"})
		for _, d := range r.ResultsDetails {
			rows = append(rows, []string{d.Text, strconv.FormatBool(d.IsPlagiarized), d.SourceURL})
		}
	}

	if len(r.FlaggedSentences) > 0 {
		rows = append(rows, []string{}, []string{"Flagged Sentence"})
		for _, sentence := range r.FlaggedSentences {
			rows = append(rows, []string{sentence})
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportText(report *models.ReportExport) []byte {
	r := report.Result
	var b strings.Builder

	b.WriteString("Plagiarism Report\n")
	b.WriteString("=================\n\n")
	if report.CheckID != "" {
		fmt.Fprintf(&b, "Check ID:      %s\n", report.CheckID)
	}
	fmt.Fprintf(&b, "Generated:     %s\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Plagiarism:    %s (%s)\n", models.FormatPercentage(r.PlagiarismPercentage), report.Level.Label())
	fmt.Fprintf(&b, "Unique:        %s\n", models.FormatPercentage(r.UniqueContent()))
	if r.SimilarityScore != nil {
		fmt.Fprintf(&b, "Similarity:    %s\n", models.FormatPercentage(*r.SimilarityScore))
	}
	if r.ExactMatch != nil {
		fmt.Fprintf(&b, "Exact match:   %s\n", models.FormatPercentage(*r.ExactMatch))
	}
	if r.PartialMatch != nil {
		fmt.Fprintf(&b, "Partial match: %s\n", models.FormatPercentage(*r.PartialMatch))
	}
	if r.TotalWords > 0 {
		fmt.Fprintf(&b, "Words:         %s\n", humanize.Comma(int64(r.TotalWords)))
	}
	if r.TotalChars > 0 {
		fmt.Fprintf(&b, "Characters:    %s\n", humanize.Comma(int64(r.TotalChars)))
	}

	if len(r.FlaggedSentences) > 0 {
		b.WriteString("\nFlagged sentences:\n")
		for i, s := range r.FlaggedSentences {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}

	if len(r.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for _, src := range r.Sources {
			fmt.Fprintf(&b, "  - %s (%s) %s\n", src.Title, models.FormatPercentage(src.Percentage), src.URL)
		}
	}

	return []byte(b.String())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
