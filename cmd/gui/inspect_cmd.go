package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"c2papreview/internal/ctxkeys"
	"c2papreview/internal/source"
	"c2papreview/pkg/domain"
	"c2papreview/pkg/model"
)

func newInspectCommand(cc *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the content credentials summary of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := cc.load()
			if err != nil {
				return err
			}
			e, err := newEngine(cfg, l)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := ctxkeys.WithTraceID(cmd.Context(), 1)
			processed, err := e.normalizer.Normalize(ctx, source.Path(args[0]))
			if err != nil {
				return err
			}
			res := e.pipeline.Inspect(ctx, processed)
			if !res.OK() {
				if res.Err != nil {
					return res.Err
				}
				return domain.Errorf(domain.KindManifestReadFailed, "empty manifest result")
			}
			if asJSON {
				return writeJSON(cmd, res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderManifest(res, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the summary as JSON")
	return cmd
}

func newReportCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report <file>",
		Short: "Print the detailed manifest store report of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := cc.load()
			if err != nil {
				return err
			}
			e, err := newEngine(cfg, l)
			if err != nil {
				return err
			}
			defer e.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return domain.Wrap(domain.KindSourceUnavailable, err, "read "+args[0])
			}
			report, err := e.reporter.Report(cmd.Context(), data)
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, report, "", "  "); err != nil {
				return domain.Wrap(domain.KindReportGenerationFailed, err, "format report")
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

// writeJSON 以缩进 JSON 输出
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// manifestRows 将精简清单展开为表格行
func manifestRows(res domain.ManifestResult) []model.ManifestRow {
	m := res.Manifest
	rows := []model.ManifestRow{
		{Field: "Title", Value: m.Title},
		{Field: "Format", Value: m.Format},
		{Field: "Label", Value: m.Label},
		{Field: "Claim generator", Value: firstNonEmpty(m.ClaimGenerator.Product, m.ClaimGenerator.Value)},
	}
	if m.Signature != nil {
		rows = append(rows,
			model.ManifestRow{Field: "Issued by", Value: m.Signature.Issuer},
			model.ManifestRow{Field: "Issued on", Value: m.Signature.Time},
		)
	}
	if m.Producer != "" {
		rows = append(rows, model.ManifestRow{Field: "Produced by", Value: m.Producer})
	}
	rows = append(rows, model.ManifestRow{Field: "AI generated", Value: strconv.FormatBool(m.IsAIGenerated)})
	for _, a := range m.Actions {
		rows = append(rows, model.ManifestRow{Field: "Action", Value: joinNonEmpty(a.Label, a.SoftwareAgent)})
	}
	for _, ing := range m.Ingredients {
		v := joinNonEmpty(ing.Title, ing.Format)
		if ing.HasManifest {
			v += " (has credentials)"
		}
		rows = append(rows, model.ManifestRow{Field: "Ingredient", Value: v})
	}
	for _, s := range m.ValidationStatus {
		rows = append(rows, model.ManifestRow{Field: "Validation", Value: joinNonEmpty(s.Code, s.Explanation)})
	}
	if res.VerifyURL != "" {
		rows = append(rows, model.ManifestRow{Field: "Verify", Value: res.VerifyURL})
	}
	return rows
}

func renderManifest(res domain.ManifestResult, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if !colorize {
		tw.SetStyle(table.StyleLight)
		tw.Style().Color = table.ColorOptions{}
	} else {
		tw.Style().Color.Header = text.Colors{text.Bold}
	}
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, r := range manifestRows(res) {
		tw.AppendRow(table.Row{r.Field, r.Value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, WidthMax: 80},
	})
	return tw.Render()
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(vals ...string) string {
	var parts []string
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " · ")
}
