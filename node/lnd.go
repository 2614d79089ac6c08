package node

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math"
	"sync"

	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/chainrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"gopkg.in/macaroon.v2"
)

const (
	walletPasswordInfo = "lnconsole wallet password"
	seedEntropyInfo    = "lnconsole aezeed entropy"
	inviteCodeKey      = "invite-code"
)

// MaxInvoiceAmountSat is the largest invoice amount whose msat value fits
// into lnd's signed amount fields.
const MaxInvoiceAmountSat = math.MaxInt64 / 1000

// check LndConnector compliance to its interface during compile time
var _ Connector = (*LndConnector)(nil)
var _ Session = (*lndSession)(nil)

type LndConnectorConfig struct {
	Host        string
	TLSCertPath string
	Logger      Logger
}

// LndConnector recovers, registers and connects to nodes backed by an lnd
// wallet. A node's identity is the lnd wallet, and its wallet password and
// aezeed entropy are both derived from the seed.
type LndConnector struct {
	host                 string
	tlsCertPath          string
	log                  Logger
	transportCredentials func(certPath string) (credentials.TransportCredentials, error)
	dialOptions          []grpc.DialOption
}

func NewLndConnector(config *LndConnectorConfig) *LndConnector {
	connector := &LndConnector{
		host:        config.Host,
		tlsCertPath: config.TLSCertPath,
		transportCredentials: func(certPath string) (credentials.TransportCredentials, error) {
			return credentials.NewClientTLSFromFile(certPath, "")
		},
	}

	if config.Logger != nil {
		connector.log = config.Logger
	} else {
		connector.log = noopLogger{}
	}

	return connector
}

func (c *LndConnector) dial(ctx context.Context, host string, certPath string) (*grpc.ClientConn, error) {
	tlsCredentials, err := c.transportCredentials(certPath)
	if err != nil {
		return nil, errors.Errorf("Could not load tls cert %v: %v", certPath, err)
	}

	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(tlsCredentials)}, c.dialOptions...)

	conn, err := grpc.DialContext(ctx, host, opts...)
	if err != nil {
		return nil, errors.Errorf("Could not connect to lightning node: %v", err)
	}

	return conn, nil
}

func (c *LndConnector) RecoverNode(ctx context.Context, network Network, seed []byte) (*Credentials, error) {
	if _, err := network.Params(); err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx, c.host, c.tlsCertPath)
	if err != nil {
		return nil, err
	}

	defer conn.Close()

	state, err := lnrpc.NewStateClient(conn).GetState(ctx, &lnrpc.GetStateRequest{})
	if err != nil {
		return nil, errors.Errorf("Could not get wallet state: %v", err)
	}

	password, err := deriveKey(seed, walletPasswordInfo, 32)
	if err != nil {
		return nil, err
	}

	switch state.State {
	case lnrpc.WalletState_NON_EXISTING:
		return nil, errors.New("no node exists yet")
	case lnrpc.WalletState_LOCKED:
		c.log.Debugf("Unlocking existing wallet")

		_, err := lnrpc.NewWalletUnlockerClient(conn).UnlockWallet(ctx, &lnrpc.UnlockWalletRequest{
			WalletPassword: password,
		})
		if err != nil {
			return nil, errors.Errorf("Could not unlock wallet: %v", err)
		}

		if err := c.waitUntilActive(ctx, conn); err != nil {
			return nil, err
		}
	case lnrpc.WalletState_RPC_ACTIVE, lnrpc.WalletState_SERVER_ACTIVE:
		c.log.Debugf("Wallet is already active (state %v)", state.State)
	default:
		c.log.Debugf("Wallet is unlocked but not active yet (state %v)", state.State)

		if err := c.waitUntilActive(ctx, conn); err != nil {
			return nil, err
		}
	}

	return &Credentials{
		Network:        network,
		WalletPassword: password,
	}, nil
}

func (c *LndConnector) RegisterNode(ctx context.Context, network Network, seed []byte, inviteCode string) (*Credentials, error) {
	if _, err := network.Params(); err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx, c.host, c.tlsCertPath)
	if err != nil {
		return nil, err
	}

	defer conn.Close()

	password, err := deriveKey(seed, walletPasswordInfo, 32)
	if err != nil {
		return nil, err
	}

	entropy, err := deriveKey(seed, seedEntropyInfo, 16)
	if err != nil {
		return nil, err
	}

	unlockerCtx := ctx
	if inviteCode != "" {
		unlockerCtx = metadata.AppendToOutgoingContext(ctx, inviteCodeKey, inviteCode)
	}

	unlocker := lnrpc.NewWalletUnlockerClient(conn)

	genSeed, err := unlocker.GenSeed(unlockerCtx, &lnrpc.GenSeedRequest{
		SeedEntropy: entropy,
	})
	if err != nil {
		return nil, errors.Errorf("Could not generate node seed: %v", err)
	}

	res, err := unlocker.InitWallet(unlockerCtx, &lnrpc.InitWalletRequest{
		WalletPassword:     password,
		CipherSeedMnemonic: genSeed.CipherSeedMnemonic,
	})
	if err != nil {
		return nil, errors.Errorf("Could not create wallet: %v", err)
	}

	if err := c.waitUntilActive(ctx, conn); err != nil {
		return nil, err
	}

	return &Credentials{
		Network:        network,
		WalletPassword: password,
		AdminMacaroon:  res.AdminMacaroon,
	}, nil
}

// waitUntilActive blocks until lnd serves its RPC layer after the wallet
// was unlocked or created.
func (c *LndConnector) waitUntilActive(ctx context.Context, conn *grpc.ClientConn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	states, err := lnrpc.NewStateClient(conn).SubscribeState(ctx, &lnrpc.SubscribeStateRequest{})
	if err != nil {
		return errors.Errorf("Could not subscribe to wallet state: %v", err)
	}

	for {
		res, err := states.Recv()
		if err != nil {
			return errors.Errorf("Failed waiting for node to become active: %v", err)
		}

		switch res.State {
		case lnrpc.WalletState_RPC_ACTIVE, lnrpc.WalletState_SERVER_ACTIVE:
			c.log.Debugf("Node is active (state %v)", res.State)
			return nil
		default:
			c.log.Debugf("Waiting for node to become active (state %v)", res.State)
		}
	}
}

// Connect starts a session. The seed is not used since lnd signs on the
// server side. A freshly registered node is authenticated with the admin
// macaroon from its credentials since it was minted with a new root key.
func (c *LndConnector) Connect(ctx context.Context, config *Config, seed []byte, creds *Credentials, listener EventListener) (Session, error) {
	if creds == nil {
		return nil, errors.New("missing node credentials")
	}

	macaroonBytes := creds.AdminMacaroon
	if len(macaroonBytes) == 0 {
		var err error

		macaroonBytes, err = hex.DecodeString(config.APIKey)
		if err != nil {
			return nil, errors.Errorf("API key is not a hex encoded macaroon: %v", err)
		}
	} else {
		c.log.Debugf("Authenticating with the admin macaroon of the registered node")
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macaroonBytes); err != nil {
		return nil, errors.Errorf("Could not parse macaroon: %v", err)
	}

	conn, err := c.dial(ctx, config.Host, config.TLSCertPath)
	if err != nil {
		return nil, err
	}

	if listener == nil {
		listener = EventListenerFunc(func(Event) {})
	}

	s := &lndSession{
		conn:             conn,
		client:           lnrpc.NewLightningClient(conn),
		router:           routerrpc.NewRouterClient(conn),
		chain:            chainrpc.NewChainNotifierClient(conn),
		macaroonMetadata: metadata.Pairs("macaroon", hex.EncodeToString(macaroonBytes)),
		config:           config,
		listener:         listener,
		log:              c.log,
		done:             make(chan struct{}),
	}

	info, err := s.client.GetInfo(s.withMacaroon(ctx), &lnrpc.GetInfoRequest{})
	if err != nil {
		_ = conn.Close()
		return nil, errors.Errorf("Could not get info of lightning node: %v", err)
	}

	s.start(info.SyncedToChain)

	return s, nil
}

type lndSession struct {
	conn             *grpc.ClientConn
	client           lnrpc.LightningClient
	router           routerrpc.RouterClient
	chain            chainrpc.ChainNotifierClient
	macaroonMetadata metadata.MD
	config           *Config
	listener         EventListener
	log              Logger
	cancel           context.CancelFunc
	group            errgroup.Group
	synced           sync.Once
	stopped          sync.Once
	failMtx          sync.Mutex
	failErr          error
	done             chan struct{}
}

func (s *lndSession) withMacaroon(ctx context.Context) context.Context {
	return metadata.NewOutgoingContext(ctx, s.macaroonMetadata)
}

func (s *lndSession) start(synced bool) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if synced {
		s.markSynced()
	}

	s.group.Go(func() error {
		err := s.subscribeInvoices(ctx)
		if err != nil {
			s.log.Errorf("Invoice subscription ended: %v", err)
			s.fail(err)
		}
		return err
	})

	s.group.Go(func() error {
		err := s.subscribeBlocks(ctx)
		if err != nil {
			s.log.Warnf("Block subscription ended: %v", err)
		}
		return err
	})

	s.group.Go(func() error {
		err := s.subscribeBackups(ctx)
		if err != nil {
			s.log.Warnf("Channel backup subscription ended: %v", err)
		}
		return err
	})
}

func (s *lndSession) fail(err error) {
	s.failMtx.Lock()
	defer s.failMtx.Unlock()

	if s.failErr != nil {
		return
	}

	s.failErr = err
	close(s.done)
}

func (s *lndSession) Done() <-chan struct{} {
	return s.done
}

func (s *lndSession) Err() error {
	s.failMtx.Lock()
	defer s.failMtx.Unlock()

	return s.failErr
}

func (s *lndSession) markSynced() {
	s.synced.Do(func() {
		s.listener.OnEvent(SyncedEvent{})
	})
}

func (s *lndSession) subscribeInvoices(ctx context.Context) error {
	invoices, err := s.client.SubscribeInvoices(s.withMacaroon(ctx), &lnrpc.InvoiceSubscription{})
	if err != nil {
		return errors.Errorf("Could not subscribe to invoices: %v", err)
	}

	for {
		invoice, err := invoices.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return errors.Errorf("Failed receiving invoice updates: %v", err)
		}

		if invoice.State != lnrpc.Invoice_SETTLED {
			s.log.Debugf("Invoice %x changed to %v", invoice.RHash, invoice.State)
			continue
		}

		s.log.Debugf("Received settled payment of %v msat", invoice.AmtPaidMsat)

		s.listener.OnEvent(InvoicePaidEvent{
			PaymentHash: hex.EncodeToString(invoice.RHash),
			Bolt11:      invoice.PaymentRequest,
			AmountMsat:  uint64(invoice.AmtPaidMsat),
		})
	}
}

func (s *lndSession) subscribeBlocks(ctx context.Context) error {
	blocks, err := s.chain.RegisterBlockEpochNtfn(s.withMacaroon(ctx), &chainrpc.BlockEpoch{})
	if err != nil {
		return errors.Errorf("Could not subscribe to blocks: %v", err)
	}

	for {
		block, err := blocks.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return errors.Errorf("Failed receiving blocks: %v", err)
		}

		s.listener.OnEvent(NewBlockEvent{Height: block.Height})

		info, err := s.client.GetInfo(s.withMacaroon(ctx), &lnrpc.GetInfoRequest{})
		if err != nil {
			s.log.Warnf("Could not get sync state: %v", err)
			continue
		}

		if info.SyncedToChain {
			s.markSynced()
		}
	}
}

func (s *lndSession) subscribeBackups(ctx context.Context) error {
	backups, err := s.client.SubscribeChannelBackups(s.withMacaroon(ctx), &lnrpc.ChannelBackupSubscription{})
	if err != nil {
		s.listener.OnEvent(BackupFailedEvent{Error: err.Error()})
		return errors.Errorf("Could not subscribe to channel backups: %v", err)
	}

	s.listener.OnEvent(BackupStartedEvent{})

	for {
		_, err := backups.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			s.listener.OnEvent(BackupFailedEvent{Error: err.Error()})
			return errors.Errorf("Failed receiving channel backups: %v", err)
		}

		s.listener.OnEvent(BackupSucceededEvent{})
	}
}

func (s *lndSession) NodeInfo(ctx context.Context) (*NodeInfo, error) {
	ctx = s.withMacaroon(ctx)

	info, err := s.client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, errors.Errorf("Could not get node info: %v", err)
	}

	if info.IdentityPubkey == "" {
		return nil, nil
	}

	balance, err := s.client.ChannelBalance(ctx, &lnrpc.ChannelBalanceRequest{})
	if err != nil {
		return nil, errors.Errorf("Could not get channel balance: %v", err)
	}

	nodeInfo := &NodeInfo{
		Id:             info.IdentityPubkey,
		Alias:          info.Alias,
		BlockHeight:    info.BlockHeight,
		SyncedToChain:  info.SyncedToChain,
		ActiveChannels: info.NumActiveChannels,
	}

	if balance.LocalBalance != nil {
		nodeInfo.MaxPayableMsat = balance.LocalBalance.Msat
	}

	if balance.RemoteBalance != nil {
		nodeInfo.InboundMsat = balance.RemoteBalance.Msat
	}

	return nodeInfo, nil
}

func (s *lndSession) ReceivePayment(ctx context.Context, amountSat uint64, memo string) (*Invoice, error) {
	if amountSat > MaxInvoiceAmountSat {
		return nil, errors.Errorf("Invoice amount of %v sat exceeds the maximum of %v sat", amountSat, uint64(MaxInvoiceAmountSat))
	}

	res, err := s.client.AddInvoice(s.withMacaroon(ctx), &lnrpc.Invoice{
		Memo:      memo,
		ValueMsat: int64(amountSat * 1000),
	})
	if err != nil {
		return nil, errors.Errorf("Could not add invoice: %v", err)
	}

	return &Invoice{
		Bolt11:      res.PaymentRequest,
		PaymentHash: hex.EncodeToString(res.RHash),
		AmountMsat:  amountSat * 1000,
		Memo:        memo,
	}, nil
}

func (s *lndSession) SendPayment(ctx context.Context, bolt11 string, amountMsat *uint64) (*Payment, error) {
	req := &routerrpc.SendPaymentRequest{
		PaymentRequest:    bolt11,
		TimeoutSeconds:    int32(s.config.PaymentTimeout.Seconds()),
		FeeLimitSat:       s.config.FeeLimitSat,
		NoInflightUpdates: true,
	}

	if amountMsat != nil {
		req.AmtMsat = int64(*amountMsat)
	}

	updates, err := s.router.SendPaymentV2(s.withMacaroon(ctx), req)
	if err != nil {
		return nil, errors.Errorf("Could not send payment: %v", err)
	}

	for {
		update, err := updates.Recv()
		if err != nil {
			s.listener.OnEvent(PaymentFailedEvent{Bolt11: bolt11, Error: err.Error()})
			return nil, errors.Errorf("Failed receiving payment updates: %v", err)
		}

		switch update.Status {
		case lnrpc.Payment_SUCCEEDED:
			payment := &Payment{
				PaymentHash:     update.PaymentHash,
				PaymentPreimage: update.PaymentPreimage,
				AmountMsat:      uint64(update.ValueMsat),
				FeeMsat:         uint64(update.FeeMsat),
				Bolt11:          bolt11,
			}

			s.listener.OnEvent(PaymentSucceededEvent{Payment: payment})

			return payment, nil
		case lnrpc.Payment_FAILED:
			reason := update.FailureReason.String()

			s.listener.OnEvent(PaymentFailedEvent{Bolt11: bolt11, Error: reason})

			return nil, errors.Errorf("Payment failed: %v", reason)
		default:
			s.log.Debugf("Payment %v is %v", update.PaymentHash, update.Status)
		}
	}
}

func (s *lndSession) Stop() error {
	var err error

	s.stopped.Do(func() {
		s.cancel()

		if subErr := s.group.Wait(); subErr != nil {
			s.log.Debugf("Subscriptions ended with: %v", subErr)
		}

		if closeErr := s.conn.Close(); closeErr != nil {
			err = errors.Errorf("Could not close connection: %v", closeErr)
		}
	})

	return err
}

// deriveKey expands the seed into a key of the given size for one purpose.
func deriveKey(seed []byte, info string, size int) ([]byte, error) {
	if len(seed) < 16 {
		return nil, errors.Errorf("seed too short: %d bytes", len(seed))
	}

	key := make([]byte, size)

	_, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte(info)), key)
	if err != nil {
		return nil, errors.Errorf("Could not derive key: %v", err)
	}

	return key, nil
}
