package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/degreeaudit/core/audit"
	"github.com/trezcool/degreeaudit/core/plan"
)

func (cli *commandLine) planCmd() *cobra.Command {
	var (
		mappingFile string
		noDerive    bool
		showCourses bool
	)
	cmd := &cobra.Command{
		Use:   "plan FILE",
		Short: "Print the academic plan of a saved analysis response",
		Long: `Read an analysis response saved as JSON, and print the credit shares
and the year-by-year plan built from it. Nothing is sent or stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mappingFile == "" {
				mappingFile = cli.conf.Audit.MappingFile
			}
			mapping, err := audit.LoadMapping(mappingFile)
			if err != nil {
				return err
			}
			raw, err := ioutil.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading analysis response")
			}
			ext, err := mapping.Normalize(raw)
			if err != nil {
				return errors.Wrap(err, args[0])
			}
			report := audit.BuildReport(filepath.Base(args[0]), ext, !noDerive)
			return printReport(cmd.OutOrStdout(), report, showCourses)
		},
	}
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "YAML file of extra response paths (default: audit.mappingFile)")
	cmd.Flags().BoolVar(&noDerive, "no-derive", false, "do not sum the credit totals from the courses when the response has none")
	cmd.Flags().BoolVar(&showCourses, "courses", false, "also print the course table")
	return cmd
}

func printReport(out io.Writer, r *audit.Report, showCourses bool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	if r.Student.Name != "" {
		fmt.Fprintf(w, "Student:\t%s\n", r.Student.Name)
	}
	if r.Student.Major != "" {
		fmt.Fprintf(w, "Major:\t%s\n", r.Student.Major)
	}
	if r.Student.GPA != "" {
		fmt.Fprintf(w, "GPA:\t%s\n", r.Student.GPA)
	}
	fmt.Fprintf(w, "Completed:\t%s\t%.1f%%\n", credits(r.Credits.Completed), r.Shares.Completed)
	fmt.Fprintf(w, "In progress:\t%s\t%.1f%%\n", credits(r.Credits.InProgress), r.Shares.InProgress)
	fmt.Fprintf(w, "Remaining:\t%s\t%.1f%%\n", credits(r.Credits.Remaining), r.Shares.Remaining)
	if err := w.Flush(); err != nil {
		return err
	}

	for _, b := range r.Plan {
		fmt.Fprintf(out, "\n%s (%s credits)\n", b.Name, credits(plan.Credits(b.Courses)))
		if len(b.Courses) == 0 {
			fmt.Fprintln(out, "  (no courses)")
			continue
		}
		for _, c := range b.Courses {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", c.Code, c.Title, credits(c.Units()), c.Status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if showCourses {
		fmt.Fprintln(out, "\nCourses")
		fmt.Fprintln(w, "  CODE\tTITLE\tCREDITS\tSTATUS\tTERM\tGRADE")
		for _, c := range r.Courses {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n", c.Code, c.Title, credits(c.Credits), c.Status, c.Term, c.Grade)
		}
		return w.Flush()
	}
	return nil
}

func credits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
