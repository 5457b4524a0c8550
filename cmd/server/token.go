package main

import (
	"encoding/json"
	"os"

	"github.com/ridwanfathin/vetclinic-billing-service/internal/auth"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/model"
	"github.com/spf13/cobra"
)

var (
	tokenUserID string
	tokenEmail  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a clinic user",
	Long: `Signs a bearer token with JWT_SECRET. User accounts live outside this
service; the token only carries the user id recorded on invoices and payments.`,
	Example: `  vetbilling token --user-id staff-42 --email desk@clinic.test`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}

		token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpires).Generate(tokenUserID, tokenEmail)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(model.TokenResponse{AccessToken: token.AccessToken, ExpiresIn: token.ExpiresIn})
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "user id to embed in the token")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email to embed in the token")
	_ = tokenCmd.MarkFlagRequired("user-id")
}
