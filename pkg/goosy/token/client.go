package token

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data"
	token_data "github.com/goosy-labs/goosy-vault/pkg/goosy/data/token"
	"github.com/goosy-labs/goosy-vault/pkg/metrics"
)

const (
	metricsStructName = "token.client"
)

var (
	ErrInvalidAuthority  = errors.New("authority failed verification")
	ErrOwnerMismatch     = errors.New("authority does not own the source account")
	ErrMintMismatch      = errors.New("account mint does not match")
	ErrDecimalsMismatch  = errors.New("decimals do not match the mint")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrMintNotFound      = errors.New("mint not found")
)

// Client moves units of a mint between token accounts. Every operation is
// authorized by an Authority before any state changes.
type Client struct {
	log  *logrus.Entry
	data data.DatabaseData
}

func NewClient(data data.DatabaseData) *Client {
	return &Client{
		log:  logrus.StandardLogger().WithField("type", "token/client"),
		data: data,
	}
}

type TransferCheckedArgs struct {
	Source      string
	Destination string
	Mint        string
	Amount      uint64
	Decimals    uint8
	Authority   Authority
}

// TransferChecked transfers tokens after validating the mint and decimals,
// mirroring the SPL token transfer_checked instruction.
func (c *Client) TransferChecked(ctx context.Context, args *TransferCheckedArgs) (err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "TransferChecked")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	log := c.log.WithFields(logrus.Fields{
		"method":      "TransferChecked",
		"source":      args.Source,
		"destination": args.Destination,
		"amount":      args.Amount,
	})

	if args.Authority == nil || args.Authority.Verify() != nil {
		return ErrInvalidAuthority
	}

	mint, err := c.getMint(ctx, args.Mint)
	if err != nil {
		return err
	}

	if mint.Decimals != args.Decimals {
		return ErrDecimalsMismatch
	}

	source, err := c.GetAccount(ctx, args.Source)
	if err != nil {
		return err
	}

	destination, err := c.GetAccount(ctx, args.Destination)
	if err != nil {
		return err
	}

	if source.Mint != mint.Address || destination.Mint != mint.Address {
		return ErrMintMismatch
	}

	if source.Owner != args.Authority.Address() {
		return ErrOwnerMismatch
	}

	if source.Amount < args.Amount {
		return ErrInsufficientFunds
	}

	err = c.data.TransferTokens(ctx, args.Source, args.Destination, args.Amount)
	switch err {
	case nil:
	case token_data.ErrInsufficientFunds:
		return ErrInsufficientFunds
	case token_data.ErrMintMismatch:
		return ErrMintMismatch
	case token_data.ErrAccountNotFound:
		return ErrAccountNotFound
	default:
		log.WithError(err).Warn("failure transferring tokens")
		return err
	}

	log.Trace("tokens transferred")
	return nil
}

type MintToArgs struct {
	Mint        string
	Destination string
	Amount      uint64
	Authority   Authority
}

// MintTo creates new tokens in the destination account. The authority must be
// the mint's authority.
func (c *Client) MintTo(ctx context.Context, args *MintToArgs) (err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MintTo")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	log := c.log.WithFields(logrus.Fields{
		"method":      "MintTo",
		"mint":        args.Mint,
		"destination": args.Destination,
		"amount":      args.Amount,
	})

	if args.Authority == nil || args.Authority.Verify() != nil {
		return ErrInvalidAuthority
	}

	mint, err := c.getMint(ctx, args.Mint)
	if err != nil {
		return err
	}

	if mint.Authority != args.Authority.Address() {
		return ErrInvalidAuthority
	}

	destination, err := c.GetAccount(ctx, args.Destination)
	if err != nil {
		return err
	}

	if destination.Mint != mint.Address {
		return ErrMintMismatch
	}

	err = c.data.MintTokens(ctx, args.Mint, args.Destination, args.Amount)
	if err != nil {
		log.WithError(err).Warn("failure minting tokens")
		return err
	}

	log.Trace("tokens minted")
	return nil
}

// GetAccount gets a token account
func (c *Client) GetAccount(ctx context.Context, address string) (*token_data.Account, error) {
	account, err := c.data.GetTokenAccount(ctx, address)
	if err == token_data.ErrAccountNotFound {
		return nil, ErrAccountNotFound
	}
	return account, err
}

// GetBalance gets a token account's balance
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	account, err := c.GetAccount(ctx, address)
	if err != nil {
		return 0, err
	}
	return account.Amount, nil
}

// CreateMint creates a new mint controlled by authority
func (c *Client) CreateMint(ctx context.Context, address, authority string, decimals uint8) (*token_data.Mint, error) {
	record := &token_data.Mint{
		Address:   address,
		Authority: authority,
		Decimals:  decimals,
	}
	if err := c.data.CreateTokenMint(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateAccount creates a new, empty token account
func (c *Client) CreateAccount(ctx context.Context, address, mint, owner string) (*token_data.Account, error) {
	record := &token_data.Account{
		Address: address,
		Mint:    mint,
		Owner:   owner,
	}

	err := c.data.CreateTokenAccount(ctx, record)
	if err == token_data.ErrMintNotFound {
		return nil, ErrMintNotFound
	} else if err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) getMint(ctx context.Context, address string) (*token_data.Mint, error) {
	mint, err := c.data.GetTokenMint(ctx, address)
	if err == token_data.ErrMintNotFound {
		return nil, ErrMintNotFound
	}
	return mint, err
}
