package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pders01/cascade/internal/app"
	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/ingest"
	"github.com/pders01/cascade/internal/models"
	"github.com/spf13/cobra"
)

var (
	addProject string
	addNoEmbed bool
	addNoWait  bool
)

var addCmd = &cobra.Command{
	Use:   "add <text|url|file>",
	Short: "Capture text, a link or an image into a project",
	Long: `Capture an item the same way a drop into the side panel would.

  - a path to an image file becomes a file node
  - a URL ending in an image extension is downloaded into a file node
  - any other URL becomes a link node
  - everything else becomes a text node

Without --project the item lands in the inbox.

Examples:
  cascade add "a quote worth keeping"
  cascade add https://go.dev/doc --project research
  cascade add ./diagram.png --project 3`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addProject, "project", "p", "", "Target project id or name (default: inbox)")
	addCmd.Flags().BoolVar(&addNoEmbed, "no-embed", false, "Skip embedding generation")
	addCmd.Flags().BoolVar(&addNoWait, "no-wait", false, "Don't wait for image downloads to finish")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ev, err := captureEvent(args[0])
	if err != nil {
		return err
	}
	return ingestFromCLI(commandContext(cmd), addProject, ev, !addNoEmbed, !addNoWait)
}

// captureEvent builds the event a CLI argument would produce in the browser
func captureEvent(arg string) (ingest.Event, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		ev := ingest.Event{Kind: ingest.KindPaste, Data: map[string]string{}}
		data, err := os.ReadFile(arg)
		if err != nil {
			return ev, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		mt := mimetype.Detect(data)
		switch {
		case strings.HasPrefix(mt.String(), "image/"):
			ev.Files = []ingest.File{{Name: filepath.Base(arg), Type: mt.String(), Data: data}}
		case strings.HasPrefix(mt.String(), "text/"):
			ev.Data[ingest.MIMEPlainText] = string(data)
		default:
			return ev, fmt.Errorf("unsupported file type %s: %s", mt.String(), arg)
		}
		return ev, nil
	}

	return textEvent(arg), nil
}

// textEvent carries text, and http(s) URLs also as a uri-list so image
// URLs are downloaded
func textEvent(text string) ingest.Event {
	ev := ingest.Event{Kind: ingest.KindPaste, Data: map[string]string{ingest.MIMEPlainText: text}}
	trimmed := strings.TrimSpace(text)
	if u, err := url.Parse(trimmed); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		ev.Data[ingest.MIMEURIList] = trimmed
	}
	return ev
}

// ingestFromCLI routes ev into the project named by ref and reports what
// was created
func ingestFromCLI(ctx context.Context, ref string, ev ingest.Event, embed, wait bool) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.RunSink(ctx)

	p, err := resolveProject(ctx, a.Store, ref)
	if err != nil {
		return err
	}
	ev.ProjectID = p.ID

	outcome, err := a.Router.Ingest(ctx, ev)
	if err != nil {
		return err
	}
	for _, f := range outcome.Failures {
		warnf("%s", f)
	}
	if outcome.Resolver == "" {
		fmt.Fprintln(out, "Nothing to capture")
		return nil
	}

	nodes := outcome.Nodes
	if wait && len(outcome.Tasks) > 0 {
		nodes = append(nodes, awaitTasks(ctx, a, outcome.Tasks)...)
	} else {
		for _, t := range outcome.Tasks {
			fmt.Fprintf(out, "  Downloading %s (task %s)\n", t.URL, t.ID)
		}
	}

	for _, n := range nodes {
		fmt.Fprintf(out, "✓ Added %s node %d to %q: %s\n", n.Type, n.ID, p.Name, truncate(n.Title(), 60))
	}

	if embed && config.GetEmbeddingsEnabled() {
		embedCreated(ctx, a, nodes)
	}
	return nil
}

func awaitTasks(ctx context.Context, a *app.App, tasks []*ingest.Task) []models.Node {
	ctx, cancel := context.WithTimeout(ctx, config.GetFetchTimeout()+5*time.Second)
	defer cancel()

	var nodes []models.Node
	for _, t := range tasks {
		n, err := a.Sink.Await(ctx, t.ID)
		if err != nil {
			warnf("image %s was not saved: %v", t.URL, err)
			continue
		}
		nodes = append(nodes, *n)
	}
	return nodes
}

func embedCreated(ctx context.Context, a *app.App, nodes []models.Node) {
	client, err := newEmbedder(ctx)
	if err != nil {
		// Don't fail the capture, just warn
		warnf("failed to generate embedding: %v", err)
		fmt.Fprintln(warnOut, "Tip: Ensure Ollama is running and the model is available: ollama pull nomic-embed-text")
		return
	}
	n, err := embedNodes(ctx, a.Store, client, nodes)
	if err != nil {
		warnf("%v", err)
	}
	if n > 0 {
		fmt.Fprintf(out, "  ✓ Embedded %d node(s)\n", n)
	}
}
