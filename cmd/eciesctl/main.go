// Package main provides the eciesctl demonstration CLI over ecieslib.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/digital-defiance/ecies-lib"
	"github.com/digital-defiance/ecies-lib/internal/config"
	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/paillier"
	"github.com/digital-defiance/ecies-lib/internal/vote"
)

// Version is set at build time via ldflags.
var Version = "dev"

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

func main() {
	rootCmd := &cobra.Command{
		Use:     "eciesctl",
		Short:   "ecies-lib - secp256k1 hybrid encryption and verifiable ballots",
		Version: Version,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "crypto", Title: "Encryption:"})
	rootCmd.AddGroup(&cobra.Group{ID: "identity", Title: "Identity:"})
	rootCmd.AddGroup(&cobra.Group{ID: "vote", Title: "Voting:"})

	keygen := keygenCmd()
	keygen.GroupID = "identity"
	rootCmd.AddCommand(keygen)

	wizard := wizardCmd()
	wizard.GroupID = "identity"
	rootCmd.AddCommand(wizard)

	encrypt := encryptCmd()
	encrypt.GroupID = "crypto"
	rootCmd.AddCommand(encrypt)

	decrypt := decryptCmd()
	decrypt.GroupID = "crypto"
	rootCmd.AddCommand(decrypt)

	poll := pollCmd()
	poll.GroupID = "vote"
	rootCmd.AddCommand(poll)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newService() *ecieslib.Service {
	constants, err := config.Load(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load default constants:", err)
		os.Exit(1)
	}
	return ecieslib.NewService(constants, nil, nil)
}

func keygenCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a member keypair and BIP39 mnemonic",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService()
			m, err := svc.NewMember(ecieslib.MemberUser, name, email, nil)
			if err != nil {
				return err
			}
			mnemonic, err := svc.GenerateMnemonic()
			if err != nil {
				return err
			}
			fmt.Println(headerStyle.Render("Member"))
			fmt.Printf("  id:        %x\n", m.ID)
			fmt.Printf("  mnemonic:  %s\n", mnemonic)
			fmt.Println("\nKeep the mnemonic offline. AttachWalletFromMnemonic derives the HD wallet and Paillier voting key from it.")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	return cmd
}

func wizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Interactive member setup wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var name, email, mnemonicChoice string

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Display name").Value(&name),
					huh.NewInput().Title("Contact email").Value(&email),
					huh.NewSelect[string]().
						Title("Mnemonic").
						Options(
							huh.NewOption("Generate a new mnemonic", "generate"),
							huh.NewOption("I already have one", "existing"),
						).
						Value(&mnemonicChoice),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			svc := newService()
			m, err := svc.NewMember(ecieslib.MemberUser, name, email, nil)
			if err != nil {
				return err
			}

			mnemonic := ""
			if mnemonicChoice == "generate" {
				mnemonic, err = svc.GenerateMnemonic()
				if err != nil {
					return err
				}
			} else {
				prompt := huh.NewInput().Title("Mnemonic phrase").Value(&mnemonic)
				if err := prompt.Run(); err != nil {
					return err
				}
				if !cryptocore.ValidateMnemonic(mnemonic) {
					return fmt.Errorf("eciesctl: mnemonic failed BIP39 checksum validation")
				}
			}

			if err := svc.AttachWalletFromMnemonic(m, mnemonic, ""); err != nil {
				return err
			}

			fmt.Println(headerStyle.Render("Member ready"))
			fmt.Printf("  id:        %x\n", m.ID)
			fmt.Printf("  type:      %s\n", m.Type)
			if mnemonicChoice == "generate" {
				fmt.Printf("  mnemonic:  %s\n", mnemonic)
			}
			return nil
		},
	}
}

func encryptCmd() *cobra.Command {
	var recipientHex, mode string

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt stdin for a recipient public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			pubBytes, err := hex.DecodeString(recipientHex)
			if err != nil {
				return fmt.Errorf("eciesctl: decode --recipient: %w", err)
			}
			pub, err := cryptocore.ParsePublicKey(pubBytes)
			if err != nil {
				return err
			}
			plaintext, err := readAllStdin()
			if err != nil {
				return err
			}

			svc := newService()
			var frame []byte
			switch mode {
			case "simple":
				frame, err = svc.EncryptSimple(pub, plaintext)
			case "framed":
				frame, err = svc.EncryptFramed(pub, plaintext)
			default:
				return fmt.Errorf("eciesctl: unknown --mode %q (want simple|framed)", mode)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "encrypted %s -> %s\n", humanize.Bytes(uint64(len(plaintext))), humanize.Bytes(uint64(len(frame))))
			os.Stdout.Write(frame)
			return nil
		},
	}
	cmd.Flags().StringVar(&recipientHex, "recipient", "", "hex-encoded recipient public key (required)")
	cmd.Flags().StringVar(&mode, "mode", "framed", "simple|framed")
	cmd.MarkFlagRequired("recipient")
	return cmd
}

func decryptCmd() *cobra.Command {
	var privateHex, mode string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt stdin with a recipient private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			privBytes, err := hex.DecodeString(privateHex)
			if err != nil {
				return fmt.Errorf("eciesctl: decode --private: %w", err)
			}
			kp, err := cryptocore.KeyPairFromPrivateBytes(privBytes)
			if err != nil {
				return err
			}
			frame, err := readAllStdin()
			if err != nil {
				return err
			}

			svc := newService()
			var plaintext []byte
			switch mode {
			case "simple":
				plaintext, err = svc.DecryptSimple(kp.Private, frame)
			case "framed":
				plaintext, err = svc.DecryptFramed(kp.Private, frame)
			default:
				return fmt.Errorf("eciesctl: unknown --mode %q (want simple|framed)", mode)
			}
			if err != nil {
				return err
			}
			os.Stdout.Write(plaintext)
			return nil
		},
	}
	cmd.Flags().StringVar(&privateHex, "private", "", "hex-encoded recipient private key (required)")
	cmd.Flags().StringVar(&mode, "mode", "framed", "simple|framed")
	cmd.MarkFlagRequired("private")
	return cmd
}

func pollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run a self-contained poll demonstration",
	}
	cmd.AddCommand(pollDemoCmd())
	return cmd
}

// pollDemoCmd runs an end-to-end poll lifecycle in a single process: it
// derives an authority Paillier keypair, opens a poll, casts sample
// ballots, closes it, and prints the tally. There is no persistence
// layer (spec.md §1 excludes durable storage), so "poll create/vote/tally"
// are folded into one demonstration rather than separate stateful
// subcommands operating on a file.
func pollDemoCmd() *cobra.Command {
	var methodName string
	var choicesCSV string
	var ballotsCSV string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create a poll, cast sample ballots, and tally the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			vmethod, ok := vote.ParseMethod(methodName)
			if !ok {
				return fmt.Errorf("eciesctl: unknown --method %q", methodName)
			}
			choices := strings.Split(choicesCSV, ",")
			if len(choices) < 2 {
				return fmt.Errorf("eciesctl: --choices needs at least two entries")
			}
			ballots, err := parseBallots(ballotsCSV)
			if err != nil {
				return err
			}

			seed := make([]byte, 32)
			if _, err := rand.Read(seed); err != nil {
				return err
			}
			authority, err := paillier.DeriveKeyPair(seed, 2048, 64, 20000)
			if err != nil {
				return err
			}

			svc := newService()
			poll, err := svc.NewPoll([]byte("demo-poll"), choices, vmethod, []byte("authority"), authority.Public, 0, false, 0, 0)
			if err != nil {
				return err
			}

			enc, err := vote.NewVoteEncoder(authority.Public, len(choices), poll.MaxWeight, poll.AllowInsecure)
			if err != nil {
				return err
			}
			for i, choice := range ballots {
				voteBallot, err := enc.Encode(vmethod, vote.Ballot{ChoiceIndex: choice})
				if err != nil {
					return err
				}
				if err := poll.CastVote([]byte(fmt.Sprintf("voter-%d", i)), voteBallot); err != nil {
					return err
				}
			}
			if err := poll.Close(); err != nil {
				return err
			}

			tallier := svc.NewPollTallier(authority.Private)
			result, err := svc.Tally(tallier, poll)
			if err != nil {
				return err
			}

			fmt.Println(headerStyle.Render(fmt.Sprintf("%s poll result", vmethod)))
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&methodName, "method", "Plurality", "voting method name")
	cmd.Flags().StringVar(&choicesCSV, "choices", "yes,no", "comma-separated choice labels")
	cmd.Flags().StringVar(&ballotsCSV, "ballots", "0,0,1", "comma-separated choice indexes, one per ballot")
	return cmd
}

func parseBallots(csv string) ([]int, error) {
	parts := strings.Split(csv, ",")
	ballots := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("eciesctl: invalid --ballots entry %q: %w", p, err)
		}
		ballots = append(ballots, n)
	}
	return ballots, nil
}

func readAllStdin() ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 64*1024)
	for {
		n, err := os.Stdin.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}
