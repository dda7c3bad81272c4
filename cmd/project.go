package cmd

import (
	"fmt"

	"github.com/pders01/cascade/internal/models"
	"github.com/spf13/cobra"
)

var (
	projectType string
	projectJSON bool
	projectToon bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long: `List, create and delete the projects captures are collected into.

Examples:
  cascade project list
  cascade project create research
  cascade project create journal --type markdown
  cascade project delete research
  cascade project inbox`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects, most recently updated first",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project and all of its nodes",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

var projectInboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Show the inbox project, creating it if needed",
	Args:  cobra.NoArgs,
	RunE:  runProjectInbox,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd, projectCreateCmd, projectDeleteCmd, projectInboxCmd)

	projectCreateCmd.Flags().StringVar(&projectType, "type", string(models.ProjectCanvas), "Project type: canvas|markdown")
	projectListCmd.Flags().BoolVar(&projectJSON, "json", false, "Output as JSON")
	projectListCmd.Flags().BoolVar(&projectToon, "toon", false, "Output in LLM-friendly toon format")
}

func runProjectList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}

	if done, err := printStructured(projects, projectJSON, projectToon); done {
		return err
	}

	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found")
		return nil
	}

	fmt.Fprintf(out, "Found %d project(s):\n\n", len(projects))
	for _, p := range projects {
		count, err := s.CountNodes(ctx, p.ID)
		if err != nil {
			return err
		}
		marker := ""
		if p.IsInbox {
			marker = " (inbox)"
		}
		fmt.Fprintf(out, "  %d  %s%s\n", p.ID, p.Name, marker)
		fmt.Fprintf(out, "    Type:    %s\n", p.Type)
		fmt.Fprintf(out, "    Nodes:   %d\n", count)
		fmt.Fprintf(out, "    Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintln(out)
	}
	return nil
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	typ := models.ProjectType(projectType)
	if !typ.Valid() {
		return fmt.Errorf("invalid project type: %s (must be: canvas, markdown)", projectType)
	}

	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.CreateProject(ctx, args[0], typ)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Created %s project %q (id %d)\n", p.Type, p.Name, p.ID)
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := resolveProject(ctx, s, args[0])
	if err != nil {
		return err
	}
	if p.IsInbox {
		warnf("deleting the inbox; a new one is created on the next capture")
	}
	if err := s.DeleteProject(ctx, p.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Deleted project %q\n", p.Name)
	return nil
}

func runProjectInbox(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := resolveProject(ctx, s, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d  %s\n", p.ID, p.Name)
	return nil
}
