package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"go-file-organizer/internal/model"
)

var (
	bold   = color.New(color.Bold)
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	gray   = color.New(color.FgHiBlack)
)

func printFlatten(w io.Writer, result model.FlattenResult) {
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Operation:"), cyan.Sprint(result.OperationID))
	for _, item := range result.MovedItems {
		fmt.Fprintf(w, "  %s %s %s %s\n", green.Sprint("moved"), item.OriginalPath, gray.Sprint("->"), item.NewPath)
	}
	printSkipped(w, result.Skipped)
	fmt.Fprintf(w, "%d file(s) moved, %d director(ies) removed\n", result.TotalFiles, result.DirectoriesRemoved)
	if result.TotalFiles > 0 {
		fmt.Fprintln(w, gray.Sprintf("undo with: organizectl undo %s", result.OperationID))
	}
}

func printUndo(w io.Writer, result model.UndoResult) {
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Undo:"), cyan.Sprint(result.OperationID))
	for _, item := range result.RestoredItems {
		fmt.Fprintf(w, "  %s %s %s %s\n", green.Sprint("restored"), item.NewPath, gray.Sprint("->"), item.OriginalPath)
	}
	printSkipped(w, result.Skipped)
	fmt.Fprintf(w, "%d file(s) restored\n", result.TotalRestored)
}

func printSkipped(w io.Writer, skipped []model.SkippedItem) {
	for _, item := range skipped {
		fmt.Fprintf(w, "  %s %s %s\n", yellow.Sprint("skipped"), item.Path, gray.Sprintf("(%s)", item.Reason))
	}
}

func printHistory(w io.Writer, history []model.OperationSummary) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No recorded operations.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATION\tWHEN\tFILES\tDIRS\tSOURCE")
	for _, summary := range history {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			summary.OperationID,
			summary.Timestamp.Local().Format(time.DateTime),
			summary.MovedCount,
			summary.RemovedDirs,
			summary.SourceDir,
		)
	}
	_ = tw.Flush()
}

func printClassified(w io.Writer, results []model.ClassifyResult) {
	for _, result := range results {
		fmt.Fprintf(w, "%s\t%s\n", cyan.Sprint(result.Category), result.Path)
	}
}

func printAnalyses(w io.Writer, analyses []model.FileAnalysis) {
	for _, analysis := range analyses {
		info := analysis.BasicInfo
		category := info.Category
		if info.Subcategory != "" {
			category += "/" + info.Subcategory
		}
		fmt.Fprintf(w, "%s\n", bold.Sprint(info.Path))
		fmt.Fprintf(w, "  category  %s\n", cyan.Sprint(category))
		fmt.Fprintf(w, "  mime      %s\n", info.MimeType)
		fmt.Fprintf(w, "  size      %s (%d bytes)\n", info.SizeReadable, info.Size)
		fmt.Fprintf(w, "  modified  %s\n", analysis.Timestamps.Modified.Local().Format(time.DateTime))
	}
}

func printOrganize(w io.Writer, result model.OrganizeResult) {
	for _, file := range result.Organized {
		fmt.Fprintf(w, "  %s %s %s %s\n", green.Sprint(file.Category), file.File, gray.Sprint("->"), file.NewPath)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "  %s %s\n", red.Sprint("error"), msg)
	}
	fmt.Fprintf(w, "%d file(s) organized, %d error(s)\n", len(result.Organized), len(result.Errors))
}

func printWatchStatus(w io.Writer, status model.WatchStatus) {
	state := red.Sprint("stopped")
	if status.Running {
		state = green.Sprint("watching")
	}
	fmt.Fprintf(w, "%s %s %s %s (%d file(s) processed)\n",
		state, status.WatchDirectory, gray.Sprint("->"), status.OrganizationDirectory, status.FilesProcessed)
}
