package ledger

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talentdao/talentdao-backend/pkg/types"
)

// seedFile is the YAML shape of a ledger fixture. Amounts are decimal strings
// in the token's smallest unit.
type seedFile struct {
	Users []struct {
		Wallet       string   `yaml:"wallet"`
		Role         string   `yaml:"role"`
		Name         string   `yaml:"name"`
		Email        string   `yaml:"email"`
		Company      string   `yaml:"company"`
		Website      string   `yaml:"website"`
		Skills       []string `yaml:"skills"`
		KYCCompleted bool     `yaml:"kyc_completed"`
		Balance      string   `yaml:"balance"`
	} `yaml:"users"`
	Jobs []struct {
		ID              int64    `yaml:"id"`
		Title           string   `yaml:"title"`
		Description     string   `yaml:"description"`
		Reward          string   `yaml:"reward"`
		Status          string   `yaml:"status"`
		Category        string   `yaml:"category"`
		Requester       string   `yaml:"requester"`
		RequesterWallet string   `yaml:"requester_wallet"`
		Deadline        string   `yaml:"deadline"`
		Tags            []string `yaml:"tags"`
		ApplicantWallet string   `yaml:"applicant_wallet"`
		SubmissionLink  string   `yaml:"submission_link"`
	} `yaml:"jobs"`
}

// LoadSeedFile parses a YAML fixture into a fresh ledger state.
func LoadSeedFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	state := NewState()
	for _, u := range file.Users {
		state.Users[u.Wallet] = User{
			Wallet:       u.Wallet,
			Role:         Role(u.Role),
			Name:         u.Name,
			Email:        u.Email,
			Company:      u.Company,
			Website:      u.Website,
			Skills:       u.Skills,
			KYCCompleted: u.KYCCompleted,
		}
		if u.Balance != "" {
			balance, ok := types.ParseBigInt(u.Balance)
			if !ok {
				return nil, fmt.Errorf("seed user %s: invalid balance %q", u.Wallet, u.Balance)
			}
			state.SetBalance(u.Wallet, balance)
		}
	}
	for _, j := range file.Jobs {
		reward, ok := types.ParseBigInt(j.Reward)
		if !ok {
			return nil, fmt.Errorf("seed job %d: invalid reward %q", j.ID, j.Reward)
		}
		job := Job{
			ID:              j.ID,
			Title:           j.Title,
			Description:     j.Description,
			Reward:          types.NewBigInt(reward),
			Status:          JobStatus(j.Status),
			Category:        JobCategory(j.Category),
			Requester:       j.Requester,
			RequesterWallet: j.RequesterWallet,
			Deadline:        j.Deadline,
			Tags:            j.Tags,
			ApplicantWallet: j.ApplicantWallet,
			SubmissionLink:  j.SubmissionLink,
		}
		if job.Status == JobStatusSubmitted && job.SubmissionLink != "" {
			at := time.Now().Add(-2 * time.Hour).UTC()
			job.SubmittedAt = &at
		}
		state.Jobs = append(state.Jobs, job)
	}
	return state, nil
}

// Demo account addresses used when no seed file is configured. Exported so
// local mode can hand out a usable dev identity.
const (
	DemoWorkerWallet    = "0xA11Ce00000000000000000000000000000000111"
	DemoRequesterWallet = "0xB0b0000000000000000000000000000000000222"
)

// DefaultSeed returns the built-in demo dataset: one worker, one requester,
// and a handful of jobs across the lifecycle.
func DefaultSeed() *State {
	state := NewState()

	state.Users[DemoWorkerWallet] = User{
		Wallet:       DemoWorkerWallet,
		Role:         RoleWorker,
		Name:         "Bob the Developer",
		Email:        "bob@developer.com",
		Skills:       []string{"Frontend", "Backend"},
		KYCCompleted: true,
	}
	state.Users[DemoRequesterWallet] = User{
		Wallet:       DemoRequesterWallet,
		Role:         RoleRequester,
		Company:      "TechCorp Inc.",
		Email:        "hiring@techcorp.com",
		Website:      "https://techcorp.com",
		KYCCompleted: true,
	}
	state.SetBalance(DemoWorkerWallet, big.NewInt(1234))
	state.SetBalance(DemoRequesterWallet, big.NewInt(7700))

	submittedAt := time.Now().Add(-2 * time.Hour).UTC()
	state.Jobs = []Job{
		{
			ID:              1,
			Title:           "Smart Contract Audit Review",
			Description:     "Review and audit our DeFi smart contracts for security vulnerabilities.",
			Reward:          types.NewBigInt(big.NewInt(800)),
			Status:          JobStatusOpen,
			Category:        CategoryBackend,
			Requester:       "DeFi Protocol Inc",
			RequesterWallet: DemoRequesterWallet,
			Deadline:        "3 days",
			Tags:            []string{"Solidity", "Security"},
		},
		{
			ID:              2,
			Title:           "Landing Page Redesign",
			Description:     "Design a modern, Web3-themed landing page for our crypto startup.",
			Reward:          types.NewBigInt(big.NewInt(500)),
			Status:          JobStatusSubmitted,
			Category:        CategoryDesign,
			Requester:       "TechCorp Inc.",
			RequesterWallet: DemoRequesterWallet,
			Deadline:        "5 days",
			Tags:            []string{"Figma", "Web3"},
			ApplicantWallet: DemoWorkerWallet,
			SubmissionLink:  "https://figma.com/demo/landing-page-redesign",
			SubmittedAt:     &submittedAt,
		},
		{
			ID:              3,
			Title:           "React Component Library",
			Description:     "Build a comprehensive component library with documentation.",
			Reward:          types.NewBigInt(big.NewInt(1200)),
			Status:          JobStatusInProgress,
			Category:        CategoryFrontend,
			Requester:       "TechCorp Inc.",
			RequesterWallet: DemoRequesterWallet,
			Deadline:        "1 week",
			Tags:            []string{"React", "TypeScript"},
			ApplicantWallet: DemoWorkerWallet,
		},
		{
			ID:          4,
			Title:       "Marketing Campaign Strategy",
			Description: "Create a comprehensive marketing strategy for our NFT launch.",
			Reward:      types.NewBigInt(big.NewInt(600)),
			Status:      JobStatusOpen,
			Category:    CategoryMarketing,
			Requester:   "NFT Collective",
			Deadline:    "4 days",
			Tags:        []string{"Marketing", "NFT", "Social"},
		},
	}
	return state
}
