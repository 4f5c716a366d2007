// contractctl drives the contracts service from the command line. The API
// base URL and acting user come from CONTRACTS_API_URL and CONTRACTS_USER_ID
// (or the -url / -user flags on each subcommand).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	sdk "github.com/aniss699/ProjectFirst-sub005/sdk/go/contracts"
)

const usage = `usage: contractctl <command> [flags]

commands:
  create      create a contract from an accepted bid
  list        list contracts you are a party to
  get         show one contract with its deliverables
  sign        sign a contract
  transition  move a contract to a new status
  submit      submit a deliverable
  review      approve or reject a deliverable
`

type repeatStringFlag []string

func (r *repeatStringFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatStringFlag) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	*r = append(*r, v)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "create":
		runCreate(args)
	case "list":
		runList(args)
	case "get":
		runGet(args)
	case "sign":
		runSign(args)
	case "transition":
		runTransition(args)
	case "submit":
		runSubmit(args)
	case "review":
		runReview(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func newFlagSet(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.SetOutput(os.Stderr)
	url := fs.String("url", os.Getenv("CONTRACTS_API_URL"), "contracts service base url")
	user := fs.String("user", os.Getenv("CONTRACTS_USER_ID"), "acting user id")
	return fs, url, user
}

func client(url, user string) *sdk.Client {
	if url == "" {
		fail("a base url is required (-url or CONTRACTS_API_URL)")
	}
	if user == "" {
		fail("a user id is required (-user or CONTRACTS_USER_ID)")
	}
	return sdk.New(url, user)
}

func runCreate(args []string) {
	fs, url, user := newFlagSet("create")
	missionID := fs.String("mission", "", "mission id")
	bidID := fs.String("bid", "", "accepted bid id")
	providerID := fs.String("provider", "", "provider user id")
	terms := fs.String("terms", "", "terms as a JSON object")
	var titles repeatStringFlag
	fs.Var(&titles, "deliverable", "deliverable title (repeatable)")
	_ = fs.Parse(args)
	if *missionID == "" || *bidID == "" || *providerID == "" {
		fail("-mission, -bid and -provider are required")
	}
	params := sdk.CreateContractParams{
		MissionID:  *missionID,
		BidID:      *bidID,
		ProviderID: *providerID,
	}
	if *terms != "" {
		params.Terms = json.RawMessage(*terms)
	}
	for _, title := range titles {
		params.Deliverables = append(params.Deliverables, sdk.DeliverableSpec{Title: title})
	}
	c, err := client(*url, *user).CreateContract(context.Background(), params)
	exit(c, err)
}

func runList(args []string) {
	fs, url, user := newFlagSet("list")
	_ = fs.Parse(args)
	cs, err := client(*url, *user).ListContracts(context.Background())
	exit(cs, err)
}

func runGet(args []string) {
	fs, url, user := newFlagSet("get")
	id := fs.String("id", "", "contract id")
	_ = fs.Parse(args)
	if *id == "" {
		fail("-id is required")
	}
	c, err := client(*url, *user).GetContract(context.Background(), *id)
	exit(c, err)
}

func runSign(args []string) {
	fs, url, user := newFlagSet("sign")
	id := fs.String("id", "", "contract id")
	_ = fs.Parse(args)
	if *id == "" {
		fail("-id is required")
	}
	c, err := client(*url, *user).SignContract(context.Background(), *id)
	exit(c, err)
}

func runTransition(args []string) {
	fs, url, user := newFlagSet("transition")
	id := fs.String("id", "", "contract id")
	status := fs.String("to", "", "target status")
	_ = fs.Parse(args)
	if *id == "" || *status == "" {
		fail("-id and -to are required")
	}
	c, err := client(*url, *user).TransitionContract(context.Background(), *id, *status)
	exit(c, err)
}

func runSubmit(args []string) {
	fs, url, user := newFlagSet("submit")
	id := fs.String("id", "", "deliverable id")
	description := fs.String("description", "", "submission notes")
	var files repeatStringFlag
	fs.Var(&files, "file", "file url (repeatable)")
	_ = fs.Parse(args)
	if *id == "" {
		fail("-id is required")
	}
	d, err := client(*url, *user).SubmitDeliverable(context.Background(), *id, sdk.SubmitDeliverableParams{
		FileURLs:    []string(files),
		Description: *description,
	})
	exit(d, err)
}

func runReview(args []string) {
	fs, url, user := newFlagSet("review")
	id := fs.String("id", "", "deliverable id")
	approve := fs.Bool("approve", false, "approve instead of reject")
	feedback := fs.String("feedback", "", "review feedback")
	_ = fs.Parse(args)
	if *id == "" {
		fail("-id is required")
	}
	d, err := client(*url, *user).ReviewDeliverable(context.Background(), *id, sdk.ReviewDeliverableParams{
		Approved: *approve,
		Feedback: *feedback,
	})
	exit(d, err)
}

func exit(v any, err error) {
	if err != nil {
		fail(err.Error())
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "contractctl:", msg)
	os.Exit(1)
}
