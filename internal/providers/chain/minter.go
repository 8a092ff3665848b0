// Package chain mints reward tokens by calling an ERC-20 style contract's
// mint(address,uint256) function from a server-held key.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/reward"
)

const rewardTokenABI = `[
	{"type":"function","name":"paused","inputs":[],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
	{"type":"function","name":"maxMintPerTx","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"mint","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`

// Backend is the subset of an RPC client the minter needs.
// *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Config holds minter settings
type Config struct {
	Contract   string
	PrivateKey string
	// MinBalanceWei is the signer balance below which minting is refused
	MinBalanceWei *big.Int
}

// Ensure Minter implements reward.Minter
var _ reward.Minter = (*Minter)(nil)

// Minter signs and broadcasts mint transactions
type Minter struct {
	backend    Backend
	abi        abi.ABI
	contract   common.Address
	key        *ecdsa.PrivateKey
	from       common.Address
	minBalance *big.Int
	logger     *slog.Logger
}

// Dial connects to an RPC endpoint
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// ParseWei parses a decimal wei amount. An empty string is zero.
func ParseWei(s string) (*big.Int, error) {
	if strings.TrimSpace(s) == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid wei amount %q", s)
	}
	return v, nil
}

// New creates a Minter
func New(backend Backend, cfg Config, logger *slog.Logger) (*Minter, error) {
	if !common.IsHexAddress(cfg.Contract) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.Contract)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(rewardTokenABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	minBalance := cfg.MinBalanceWei
	if minBalance == nil {
		minBalance = new(big.Int)
	}
	return &Minter{
		backend:    backend,
		abi:        parsed,
		contract:   common.HexToAddress(cfg.Contract),
		key:        key,
		from:       crypto.PubkeyToAddress(key.PublicKey),
		minBalance: minBalance,
		logger:     logger,
	}, nil
}

// Address returns the signer's address
func (m *Minter) Address() common.Address {
	return m.from
}

// Mint checks the contract's pause flag and per-transaction cap and the
// signer's balance, then sends mint(wallet, amount) and returns the
// transaction hash. It does not wait for the transaction to be mined.
func (m *Minter) Mint(ctx context.Context, wallet string, amount int64) (string, error) {
	if !common.IsHexAddress(wallet) {
		return "", fmt.Errorf("%w: invalid wallet %q", model.ErrMintFailed, wallet)
	}

	paused, err := m.callBool(ctx, "paused")
	if err != nil {
		return "", err
	}
	if paused {
		return "", model.ErrMintingPaused
	}

	capPerTx, err := m.callUint(ctx, "maxMintPerTx")
	if err != nil {
		return "", err
	}
	value := big.NewInt(amount)
	if capPerTx.Sign() > 0 && value.Cmp(capPerTx) > 0 {
		return "", fmt.Errorf("%w: contract allows %s per transaction", model.ErrMintAmountOverCap, capPerTx)
	}

	balance, err := m.backend.BalanceAt(ctx, m.from, nil)
	if err != nil {
		return "", fmt.Errorf("%w: read balance: %w", model.ErrMintFailed, err)
	}
	if balance.Cmp(m.minBalance) < 0 {
		return "", fmt.Errorf("%w: signer balance %s is below %s", model.ErrMintFailed, balance, m.minBalance)
	}

	data, err := m.abi.Pack("mint", common.HexToAddress(wallet), value)
	if err != nil {
		return "", fmt.Errorf("%w: pack mint: %w", model.ErrMintFailed, err)
	}

	tx, err := m.buildTx(ctx, data)
	if err != nil {
		return "", err
	}
	if err := m.backend.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("%w: send transaction: %w", model.ErrMintFailed, err)
	}

	hash := tx.Hash().Hex()
	m.logger.Info("mint transaction sent",
		slog.String("to", wallet),
		slog.Int64("amount", amount),
		slog.String("tx_hash", hash),
		slog.Uint64("nonce", tx.Nonce()))
	return hash, nil
}

func (m *Minter) buildTx(ctx context.Context, data []byte) (*types.Transaction, error) {
	nonce, err := m.backend.PendingNonceAt(ctx, m.from)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %w", model.ErrMintFailed, err)
	}
	gasPrice, err := m.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gas price: %w", model.ErrMintFailed, err)
	}
	gas, err := m.backend.EstimateGas(ctx, ethereum.CallMsg{From: m.from, To: &m.contract, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%w: estimate gas: %w", model.ErrMintFailed, err)
	}
	chainID, err := m.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %w", model.ErrMintFailed, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &m.contract,
		Value:    new(big.Int),
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), m.key)
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %w", model.ErrMintFailed, err)
	}
	return signed, nil
}

func (m *Minter) call(ctx context.Context, method string) ([]any, error) {
	data, err := m.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", model.ErrMintFailed, method, err)
	}
	out, err := m.backend.CallContract(ctx, ethereum.CallMsg{To: &m.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: call %s: %w", model.ErrMintFailed, method, err)
	}
	values, err := m.abi.Unpack(method, out)
	if err != nil || len(values) != 1 {
		return nil, fmt.Errorf("%w: unpack %s: %v", model.ErrMintFailed, method, err)
	}
	return values, nil
}

func (m *Minter) callBool(ctx context.Context, method string) (bool, error) {
	values, err := m.call(ctx, method)
	if err != nil {
		return false, err
	}
	v, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s returned %T", model.ErrMintFailed, method, values[0])
	}
	return v, nil
}

func (m *Minter) callUint(ctx context.Context, method string) (*big.Int, error) {
	values, err := m.call(ctx, method)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %T", model.ErrMintFailed, method, values[0])
	}
	return v, nil
}
