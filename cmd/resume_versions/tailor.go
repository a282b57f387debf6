package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-versions/internal/observability"
	"github.com/jonathan/resume-versions/internal/types"
)

// printVersionResult prints the new version as JSON, or as a summary box when pretty is set
func printVersionResult(cmd *cobra.Command, v *types.CompanyVersion, pretty bool) error {
	if pretty {
		observability.NewPrinter(cmd.OutOrStdout()).PrintVersion(v)
		return nil
	}
	return printJSON(cmd.OutOrStdout(), v)
}

func newTailorCmd(opts *rootOptions) *cobra.Command {
	var req types.TailorRequest
	var resumePath, jobFile string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "tailor",
		Short: "Generate a resume tailored to a new company and store it as version 1",
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

			orch, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			result, err := orch.TailorNew(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printVersionResult(cmd, result.Version, pretty)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.CompanyName, "company", "", "Company name (required)")
	flags.StringVar(&req.JobTitle, "title", "", "Job title (required)")
	flags.StringVar(&resumePath, "resume", "", "Path to the base resume JSON (required)")
	flags.StringVar(&req.JobDescription, "job-description", "", "Job description text")
	flags.StringVar(&jobFile, "job-file", "", "Read the job description from a file")
	flags.StringVar(&req.JobURL, "job-url", "", "Fetch the job description from a posting URL")
	flags.StringVar(&req.Instructions, "instructions", "", "Extra tailoring instructions, kept as the version's notes")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("resume")
	flags.BoolVar(&pretty, "pretty", false, "Print a summary box instead of JSON")
	cmd.MarkFlagsMutuallyExclusive("job-description", "job-file", "job-url")
	return cmd
}

func newModifyCmd(opts *rootOptions) *cobra.Command {
	var req types.ModifyRequest
	var jobDescription, jobFile string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "modify <companyId>",
		Short: "Revise a stored version with the LLM and append the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.CompanyID = args[0]
			switch {
			case cmd.Flags().Changed("job-description"):
				req.JobDescription = &jobDescription
			case jobFile != "":
				text, err := readJobFile(jobFile)
				if err != nil {
					return err
				}
				req.JobDescription = &text
			}

			a, err := openApp(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			orch, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			result, err := orch.Modify(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printVersionResult(cmd, result.Version, pretty)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Instructions, "instructions", "", "What to change (required)")
	flags.StringVar(&req.VersionID, "version", "", "Version to revise, the current version when empty")
	flags.StringVar(&jobDescription, "job-description", "", "Replace the job description")
	flags.StringVar(&jobFile, "job-file", "", "Replace the job description with a file's contents")
	flags.StringVar(&req.JobURL, "job-url", "", "Replace the job description with a fetched posting")
	flags.BoolVar(&pretty, "pretty", false, "Print a summary box instead of JSON")
	cmd.MarkFlagsMutuallyExclusive("job-description", "job-file", "job-url")
	return cmd
}
