package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"kolrails/internal/campaign"
	"kolrails/internal/contracts"
)

// Fixed gas budgets per call kind. Static limits trade a little gas headroom
// for predictable submission; fulfilment touches more storage than the other
// transitions.
const (
	gasTransition = 100_000
	gasFulfill    = 200_000
	gasTransfer   = 100_000
)

// receiptPollInterval paces the mined-receipt wait loop.
const receiptPollInterval = 2 * time.Second

// EthClient talks to the marketplace and token contracts over JSON-RPC.
type EthClient struct {
	client         *ethclient.Client
	marketplace    *bind.BoundContract
	marketplaceABI abi.ABI
	tokenABI       abi.ABI
	marketplaceAt  common.Address
	tokenAt        common.Address
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	account        common.Address
	receiptTimeout time.Duration
}

type EthClientConfig struct {
	RPCURL             string
	PrivateKeyHex      string
	MarketplaceAddress string
	TokenAddress       string
	ReceiptTimeout     time.Duration
}

func NewEthClient(ctx context.Context, cfg EthClientConfig) (*EthClient, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.MarketplaceAddress == "" {
		return nil, fmt.Errorf("marketplace address is required")
	}
	if cfg.TokenAddress == "" {
		return nil, fmt.Errorf("token address is required")
	}
	if cfg.PrivateKeyHex == "" {
		return nil, fmt.Errorf("private key is required for settlement")
	}

	cli, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	marketplaceABI, err := abi.JSON(strings.NewReader(contracts.MarketplaceABI))
	if err != nil {
		return nil, fmt.Errorf("parse marketplace abi: %w", err)
	}
	tokenABI, err := abi.JSON(strings.NewReader(contracts.TokenABI))
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}

	key, err := parsePrivateKey(cfg.PrivateKeyHex)
	if err != nil {
		return nil, err
	}

	chainID, err := cli.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	marketplaceAt := common.HexToAddress(cfg.MarketplaceAddress)
	timeout := cfg.ReceiptTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &EthClient{
		client:         cli,
		marketplace:    bind.NewBoundContract(marketplaceAt, marketplaceABI, cli, cli, cli),
		marketplaceABI: marketplaceABI,
		tokenABI:       tokenABI,
		marketplaceAt:  marketplaceAt,
		tokenAt:        common.HexToAddress(cfg.TokenAddress),
		chainID:        chainID,
		key:            key,
		account:        crypto.PubkeyToAddress(key.PublicKey),
		receiptTimeout: timeout,
	}, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// Account is the settlement account address derived from the signing key.
func (c *EthClient) Account() common.Address {
	return c.account
}

func (c *EthClient) CampaignInfo(ctx context.Context, id campaign.ID) (campaign.Campaign, error) {
	var out []interface{}
	err := c.marketplace.Call(&bind.CallOpts{Context: ctx}, &out, "getCampaignInfo", [32]byte(id))
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("%w: getCampaignInfo %s: %v", ErrRead, id, err)
	}
	if len(out) < 8 {
		return campaign.Campaign{}, fmt.Errorf("%w: getCampaignInfo %s: short tuple (%d fields)", ErrRead, id, len(out))
	}

	creator, ok1 := out[2].(common.Address)
	kol, ok2 := out[3].(common.Address)
	offerDeadline, ok3 := out[4].(*big.Int)
	promotionDeadline, ok4 := out[5].(*big.Int)
	amount, ok5 := out[6].(*big.Int)
	status, ok6 := out[7].(uint8)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return campaign.Campaign{}, fmt.Errorf("%w: getCampaignInfo %s: unexpected tuple types", ErrRead, id)
	}

	return campaign.Campaign{
		ID:                id,
		Creator:           creator,
		KOL:               kol,
		OfferDeadline:     campaign.NormalizeDeadline(offerDeadline),
		PromotionDeadline: campaign.NormalizeDeadline(promotionDeadline),
		TotalAmount:       amount,
		Status:            campaign.Status(status),
	}, nil
}

func (c *EthClient) AllCampaigns(ctx context.Context) ([]campaign.ID, error) {
	var out []interface{}
	err := c.marketplace.Call(&bind.CallOpts{Context: ctx}, &out, "getAllCampaigns")
	if err != nil {
		return nil, fmt.Errorf("%w: getAllCampaigns: %v", ErrRead, err)
	}
	raw, ok := out[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("%w: getAllCampaigns: unexpected return type", ErrRead)
	}
	ids := make([]campaign.ID, len(raw))
	for i, b := range raw {
		ids[i] = campaign.ID(b)
	}
	return ids, nil
}

func (c *EthClient) PendingNonce(ctx context.Context) (uint64, error) {
	nonce, err := c.client.PendingNonceAt(ctx, c.account)
	if err != nil {
		return 0, fmt.Errorf("%w: pending nonce: %v", ErrRead, err)
	}
	return nonce, nil
}

func (c *EthClient) Accept(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error) {
	return c.transition(ctx, "acceptProjectCampaign", id, nonce, gasTransition)
}

func (c *EthClient) Fulfill(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error) {
	return c.transition(ctx, "fulfilProjectCampaign", id, nonce, gasFulfill)
}

func (c *EthClient) Discard(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error) {
	return c.transition(ctx, "discardCampaign", id, nonce, gasTransition)
}

func (c *EthClient) Unfulfill(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error) {
	return c.transition(ctx, "unfulfillCampaign", id, nonce, gasTransition)
}

func (c *EthClient) transition(ctx context.Context, method string, id campaign.ID, nonce uint64, gasLimit uint64) (Receipt, error) {
	data, err := c.marketplaceABI.Pack(method, [32]byte(id))
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: pack %s: %v", ErrSubmission, method, err)
	}
	return c.submit(ctx, method, c.marketplaceAt, data, nonce, gasLimit)
}

func (c *EthClient) Transfer(ctx context.Context, to common.Address, amount *big.Int, nonce uint64) (Receipt, error) {
	data, err := c.tokenABI.Pack("transfer", to, amount)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: pack transfer: %v", ErrSubmission, err)
	}
	return c.submit(ctx, "transfer", c.tokenAt, data, nonce, gasTransfer)
}

// submit signs and sends one transaction, then blocks until it is mined or
// the receipt timeout expires. A mined-but-reverted transaction is a
// submission failure: the contract refused the transition and the next pass
// will re-read the authoritative state.
func (c *EthClient) submit(ctx context.Context, method string, to common.Address, data []byte, nonce uint64, gasLimit uint64) (Receipt, error) {
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %s: gas price: %v", ErrSubmission, method, err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %s: sign: %v", ErrSubmission, method, err)
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return Receipt{}, fmt.Errorf("%w: %s nonce %d: send: %v", ErrSubmission, method, nonce, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()
	receipt, err := waitForReceipt(waitCtx, c.client, signed)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %s nonce %d (%s): wait: %v", ErrSubmission, method, nonce, signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return Receipt{}, fmt.Errorf("%w: %s nonce %d (%s): reverted", ErrSubmission, method, nonce, signed.Hash().Hex())
	}

	return Receipt{
		TxHash:  signed.Hash().Hex(),
		Nonce:   nonce,
		GasUsed: receipt.GasUsed,
	}, nil
}

// waitForReceipt polls until the transaction is mined or the context ends.
func waitForReceipt(ctx context.Context, client *ethclient.Client, tx *types.Transaction) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, tx.Hash())
		if receipt != nil {
			return receipt, nil
		}
		if err != nil && err.Error() != "not found" {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *EthClient) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("rpc client not configured")
	}
	_, err := c.client.BlockNumber(ctx)
	return err
}
