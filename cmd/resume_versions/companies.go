package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-versions/internal/observability"
	"github.com/jonathan/resume-versions/internal/types"
)

func newCompaniesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "companies",
		Aliases: []string{"company"},
		Short:   "Browse and edit company version histories",
	}
	cmd.AddCommand(
		newCompaniesListCmd(opts),
		newCompaniesShowCmd(opts),
		newCompaniesCreateCmd(opts),
		newCompaniesAddVersionCmd(opts),
		newCompaniesUpdateCmd(opts),
		newCompaniesDeleteCmd(opts),
	)
	return cmd
}

func newCompaniesListCmd(opts *rootOptions) *cobra.Command {
	var asJSON, pretty bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			metas, err := a.manager.ListMetas(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), metas)
			}
			if pretty {
				observability.NewPrinter(cmd.OutOrStdout()).PrintCompanies(metas)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPANY ID\tNAME\tJOB TITLE\tVERSIONS\tUPDATED")
			for _, m := range metas {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					m.CompanyID, m.CompanyName, m.JobTitle, m.VersionCount, m.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Print a boxed summary instead of a table")
	cmd.MarkFlagsMutuallyExclusive("json", "pretty")
	return cmd
}

func newCompaniesShowCmd(opts *rootOptions) *cobra.Command {
	var versionID string
	var current, pretty bool
	cmd := &cobra.Command{
		Use:   "show <companyId>",
		Short: "Print a company's history, or one version with --version / --current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			companyID := args[0]
			printer := observability.NewPrinter(cmd.OutOrStdout())
			switch {
			case versionID != "":
				v, err := a.manager.GetVersion(cmd.Context(), companyID, versionID)
				if err != nil {
					return err
				}
				if v == nil {
					return &types.NotFoundError{Resource: "version", ID: versionID}
				}
				if pretty {
					printer.PrintVersion(v)
					return nil
				}
				return printJSON(cmd.OutOrStdout(), v)
			case current:
				v, err := a.manager.CurrentVersion(cmd.Context(), companyID)
				if err != nil {
					return err
				}
				if v == nil {
					return &types.NotFoundError{Resource: "company", ID: companyID}
				}
				if pretty {
					printer.PrintVersion(v)
					return nil
				}
				return printJSON(cmd.OutOrStdout(), v)
			}

			h, err := a.manager.GetHistory(cmd.Context(), companyID)
			if err != nil {
				return err
			}
			if h == nil {
				return &types.NotFoundError{Resource: "company", ID: companyID}
			}
			if pretty {
				printer.PrintHistory(h)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
	cmd.Flags().StringVar(&versionID, "version", "", "Version id to print")
	cmd.Flags().BoolVar(&current, "current", false, "Print only the current version")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Print a boxed summary instead of JSON")
	cmd.MarkFlagsMutuallyExclusive("version", "current")
	return cmd
}

func newCompaniesCreateCmd(opts *rootOptions) *cobra.Command {
	var req types.CreateCompanyRequest
	var resumePath, jobFile string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a company from an existing resume without calling the LLM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resume, err := readResume(resumePath)
			if err != nil {
				return err
			}
			req.ResumeData = resume
			if jobFile != "" {
				if req.JobDescription, err = readJobFile(jobFile); err != nil {
					return err
				}
			}

			a, err := openApp(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			v, err := a.manager.CreateCompany(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&req.CompanyName, "company", "", "Company name (required)")
	cmd.Flags().StringVar(&req.JobTitle, "title", "", "Job title (required)")
	cmd.Flags().StringVar(&resumePath, "resume", "", "Path to resume JSON (required)")
	cmd.Flags().StringVar(&req.JobDescription, "job-description", "", "Job description text")
	cmd.Flags().StringVar(&jobFile, "job-file", "", "Read the job description from a file")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "Notes for the version")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("resume")
	cmd.MarkFlagsMutuallyExclusive("job-description", "job-file")
	return cmd
}

func newCompaniesAddVersionCmd(opts *rootOptions) *cobra.Command {
	var req types.AddVersionRequest
	var resumePath, notes string
	cmd := &cobra.Command{
		Use:   "add-version <companyId>",
		Short: "Append an edited resume as the company's new current version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resume, err := readResume(resumePath)
			if err != nil {
				return err
			}
			req.ResumeData = resume
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}

			a, err := openApp(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			v, err := a.manager.AddVersion(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if v == nil {
				return &types.NotFoundError{Resource: "company", ID: args[0]}
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&resumePath, "resume", "", "Path to resume JSON (required)")
	cmd.Flags().StringVar(&req.JobTitle, "title", "", "Job title, inherited when empty")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes, inherited when not given")
	cmd.Flags().StringVar(&req.ChangeSummary, "summary", "", "Change summary")
	_ = cmd.MarkFlagRequired("resume")
	return cmd
}

func newCompaniesUpdateCmd(opts *rootOptions) *cobra.Command {
	var name, title, notes string
	cmd := &cobra.Command{
		Use:   "update <companyId>",
		Short: "Rename a company or edit the current version's title and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update types.MetaUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.CompanyName = &name
			}
			if flags.Changed("title") {
				update.JobTitle = &title
			}
			if flags.Changed("notes") {
				update.Notes = &notes
			}
			if update.IsEmpty() {
				return fmt.Errorf("nothing to update: pass --name, --title or --notes")
			}

			a, err := openApp(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			h, err := a.manager.UpdateMeta(cmd.Context(), args[0], update)
			if err != nil {
				return err
			}
			if h == nil {
				return &types.NotFoundError{Resource: "company", ID: args[0]}
			}
			return printJSON(cmd.OutOrStdout(), h.Meta())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New company name, applied to every version")
	cmd.Flags().StringVar(&title, "title", "", "New job title for the current version")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes for the current version")
	return cmd
}

func newCompaniesDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <companyId>",
		Short: "Delete a company and all of its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			deleted, err := a.manager.DeleteCompany(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return &types.NotFoundError{Resource: "company", ID: args[0]}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
