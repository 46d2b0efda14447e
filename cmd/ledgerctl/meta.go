package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/ledger"
	"github.com/nspcc-dev/proofledger/ledger/intent"
	"github.com/nspcc-dev/proofledger/proof"
	"github.com/urfave/cli"
)

const intentArgsUsage = `<kind> <arguments...>

   Kinds and arguments:
     transfer <to> <amount>
     transferFrom <from> <to> <amount>
     approve <spender> <amount>
     increaseApproval <spender> <delta>
     decreaseApproval <spender> <delta>`

var feeFlag = cli.StringFlag{
	Name:  "fee",
	Usage: "Fee paid by the signer to the relayer",
	Value: "0",
}

var keygenCommand = cli.Command{
	Name:  "keygen",
	Usage: "Generate a new signing key",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "scheme",
			Usage: "Signature scheme (neo, ethereum), configured one by default",
		},
	},
	Action: keygen,
}

func keygen(c *cli.Context) error {
	name := c.String("scheme")
	if name == "" && c.GlobalString("config") != "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		name = cfg.Ledger.Scheme
	}

	sch, err := proof.SchemeByName(name)
	if err != nil {
		return err
	}

	s, err := proof.GenerateSigner(sch)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Scheme:  %s\n", sch.Name())
	fmt.Fprintf(c.App.Writer, "Address: %s\n", proof.FormatAddress(sch, s.Address()))
	fmt.Fprintf(c.App.Writer, "Key:     %s\n", hex.EncodeToString(s.Bytes()))
	return nil
}

var signCommand = cli.Command{
	Name:  "sign",
	Usage: "Sign an intent to be submitted by a relayer",
	Description: `Prints the signature in base58. The signer's meta nonce is read from the
   ledger unless --nonce is given, in which case the ledger is not opened.`,
	ArgsUsage: intentArgsUsage,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "Hex-encoded private key of the signer",
		},
		feeFlag,
		cli.Uint64Flag{
			Name:  "nonce",
			Usage: "Meta nonce of the signer",
		},
	},
	Action: sign,
}

func sign(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("missing intent (usage: %s %s)", c.Command.Name, c.Command.ArgsUsage)
	}

	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	key, err := hex.DecodeString(c.String("key"))
	if err != nil || len(key) == 0 {
		return errors.New("invalid or missing --key")
	}
	signer, err := proof.SignerFromBytes(e.scheme, key)
	if err != nil {
		return err
	}

	in, err := e.parseIntent(c.Args())
	if err != nil {
		return err
	}
	fee, err := e.parseAmount(c.String(feeFlag.Name))
	if err != nil {
		return err
	}

	var msg intent.Message
	if c.IsSet("nonce") {
		msg = intent.Message{
			Magic:  e.cfg.Ledger.Magic,
			Intent: in,
			Fee:    fee,
			Nonce:  c.Uint64("nonce"),
		}
	} else {
		l, err := ledger.New(e.store, ledger.Prm{Logger: e.log, Scheme: e.scheme})
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		if msg, err = l.PrepareIntent(signer.Address(), in, fee); err != nil {
			return err
		}
	}

	b, err := msg.Bytes()
	if err != nil {
		return err
	}
	sig, err := proof.Sign(signer, b)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Signer:    %s\n", e.formatAddress(signer.Address()))
	fmt.Fprintf(c.App.Writer, "Nonce:     %d\n", msg.Nonce)
	fmt.Fprintf(c.App.Writer, "Signature: %s\n", sig)
	return nil
}

var relayCommand = cli.Command{
	Name:      "relay",
	Usage:     "Submit an intent signed by a holder, collecting the fee",
	ArgsUsage: intentArgsUsage,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "relayer",
			Usage: "Account submitting the intent and receiving the fee",
		},
		cli.StringFlag{
			Name:  "signer",
			Usage: "Account that signed the intent",
		},
		cli.StringFlag{
			Name:  "signature",
			Usage: "Base58-encoded signature",
		},
		feeFlag,
	},
	Action: relay,
}

func relay(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("missing intent (usage: %s %s)", c.Command.Name, c.Command.ArgsUsage)
	}

	relayer, err := proof.ParseAddress(c.String("relayer"))
	if err != nil {
		return fmt.Errorf("relayer: %w", err)
	}
	signer, err := proof.ParseAddress(c.String("signer"))
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}
	sig, err := proof.DecodeSignature(c.String("signature"))
	if err != nil {
		return err
	}

	e, err := openLedger(c)
	if err != nil {
		return err
	}
	defer e.close()

	in, err := e.parseIntent(c.Args())
	if err != nil {
		return err
	}
	fee, err := e.parseAmount(c.String(feeFlag.Name))
	if err != nil {
		return err
	}

	var r *ledger.Receipt
	l := e.ledger
	switch in := in.(type) {
	case intent.Transfer:
		r, err = l.TransferWithProof(relayer, in.To, in.Amount, sig, fee, signer)
	case intent.TransferFrom:
		r, err = l.TransferFromWithProof(relayer, in.From, in.To, in.Amount, sig, fee, signer)
	case intent.Approve:
		r, err = l.ApproveWithProof(relayer, in.Spender, in.Amount, sig, fee, signer)
	case intent.IncreaseApproval:
		r, err = l.IncreaseApprovalWithProof(relayer, in.Spender, in.Delta, sig, fee, signer)
	case intent.DecreaseApproval:
		r, err = l.DecreaseApprovalWithProof(relayer, in.Spender, in.Delta, sig, fee, signer)
	default:
		err = fmt.Errorf("unsupported intent %s", in.Kind())
	}
	if err != nil {
		return err
	}

	e.printReceipt(c, r)
	return nil
}

// parseIntent decodes intent from the kind followed by its arguments.
func (e *env) parseIntent(a cli.Args) (intent.Intent, error) {
	kind := intent.Kind(a.First())
	rest := a.Tail()

	var want int
	switch kind {
	case intent.KindTransfer, intent.KindApprove, intent.KindIncreaseApproval, intent.KindDecreaseApproval:
		want = 2
	case intent.KindTransferFrom:
		want = 3
	default:
		return nil, fmt.Errorf("unknown intent kind %q", kind)
	}
	if len(rest) != want {
		return nil, fmt.Errorf("%s intent takes %d arguments, got %d", kind, want, len(rest))
	}

	accs := make([]util.Uint160, want-1)
	for i := range accs {
		var err error
		if accs[i], err = proof.ParseAddress(rest[i]); err != nil {
			return nil, err
		}
	}
	v, err := e.parseAmount(rest[want-1])
	if err != nil {
		return nil, err
	}

	return buildIntent(kind, accs, v), nil
}

func buildIntent(kind intent.Kind, accs []util.Uint160, v *big.Int) intent.Intent {
	switch kind {
	case intent.KindTransfer:
		return intent.Transfer{To: accs[0], Amount: v}
	case intent.KindTransferFrom:
		return intent.TransferFrom{From: accs[0], To: accs[1], Amount: v}
	case intent.KindApprove:
		return intent.Approve{Spender: accs[0], Amount: v}
	case intent.KindIncreaseApproval:
		return intent.IncreaseApproval{Spender: accs[0], Delta: v}
	default:
		return intent.DecreaseApproval{Spender: accs[0], Delta: v}
	}
}
