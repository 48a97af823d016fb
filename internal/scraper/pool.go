package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserOptions configures the headless browser instances the pool hands
// out.
type BrowserOptions struct {
	Headless       bool
	Timeout        time.Duration
	DisableImages  bool
	UserAgent      string
	ViewportWidth  int64
	ViewportHeight int64
}

func DefaultBrowserOptions() *BrowserOptions {
	return &BrowserOptions{
		Headless:       true,
		Timeout:        30 * time.Second,
		DisableImages:  true,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// PoolConfig bounds the browser pool.
type PoolConfig struct {
	MaxBrowsers     int
	IdleTimeout     time.Duration
	MaxIdleBrowsers int
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxBrowsers:     3,
		IdleTimeout:     5 * time.Minute,
		MaxIdleBrowsers: 1,
	}
}

// Instance is a managed browser held by the pool.
type Instance struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	lastUsed    time.Time
	inUse       bool
}

// PoolStats reports pool usage.
type PoolStats struct {
	Active int `json:"active"`
	Idle   int `json:"idle"`
	Total  int `json:"total"`
}

// Pool is a bounded pool of headless browser instances. Each tracking lookup
// borrows one instance for the duration of the page load.
type Pool struct {
	config      *PoolConfig
	options     *BrowserOptions
	instances   []*Instance
	mu          sync.RWMutex
	closed      bool
	cleanupDone chan struct{}
}

// ValidateBrowserAvailable checks that a working Chrome/Chromium can be
// launched.
func ValidateBrowserAvailable() error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	testCtx, testCancel := context.WithTimeout(ctx, 10*time.Second)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		return fmt.Errorf("chrome not available or not working: %w", err)
	}
	return nil
}

func NewPool(config *PoolConfig, options *BrowserOptions) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if options == nil {
		options = DefaultBrowserOptions()
	}

	pool := &Pool{
		config:      config,
		options:     options,
		instances:   make([]*Instance, 0, config.MaxBrowsers),
		cleanupDone: make(chan struct{}),
	}
	go pool.cleanupLoop()
	return pool
}

// Get retrieves an idle browser instance, creating one when under the limit.
func (p *Pool) Get(ctx context.Context) (*Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("browser pool is closed")
	}

	for _, instance := range p.instances {
		if !instance.inUse {
			instance.inUse = true
			instance.lastUsed = time.Now()
			return instance, nil
		}
	}

	if len(p.instances) < p.config.MaxBrowsers {
		instance, err := p.createInstance(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create browser instance: %w", err)
		}
		instance.inUse = true
		instance.lastUsed = time.Now()
		p.instances = append(p.instances, instance)
		return instance, nil
	}

	return nil, fmt.Errorf("browser pool exhausted: %d instances in use", len(p.instances))
}

// Put returns a browser instance to the pool.
func (p *Pool) Put(instance *Instance) error {
	if instance == nil {
		return fmt.Errorf("cannot return nil instance to pool")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.cleanupInstance(instance)
		return nil
	}

	instance.inUse = false
	instance.lastUsed = time.Now()
	return nil
}

// Close shuts down all browser instances.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, instance := range p.instances {
		p.cleanupInstance(instance)
	}
	p.instances = nil
	close(p.cleanupDone)
	return nil
}

func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	instances := make([]*Instance, len(p.instances))
	copy(instances, p.instances)
	p.mu.RUnlock()

	stats := PoolStats{Total: len(instances)}
	for _, instance := range instances {
		if instance.inUse {
			stats.Active++
		} else {
			stats.Idle++
		}
	}
	return stats
}

func (p *Pool) createInstance(ctx context.Context) (*Instance, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), p.buildAllocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return &Instance{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		lastUsed:    time.Now(),
	}, nil
}

func (p *Pool) cleanupInstance(instance *Instance) {
	if instance.cancel != nil {
		instance.cancel()
	}
	if instance.allocCancel != nil {
		instance.allocCancel()
	}
}

func (p *Pool) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.cleanupIdleInstances()
		case <-p.cleanupDone:
			return
		}
	}
}

func (p *Pool) cleanupIdleInstances() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	now := time.Now()
	idleCount := 0
	kept := make([]*Instance, 0, len(p.instances))

	for _, instance := range p.instances {
		if instance.inUse {
			kept = append(kept, instance)
			continue
		}
		idleCount++
		if now.Sub(instance.lastUsed) < p.config.IdleTimeout && idleCount <= p.config.MaxIdleBrowsers {
			kept = append(kept, instance)
		} else {
			p.cleanupInstance(instance)
		}
	}
	p.instances = kept
}

func (p *Pool) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.UserAgent(p.options.UserAgent),
		chromedp.WindowSize(int(p.options.ViewportWidth), int(p.options.ViewportHeight)),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}

	if p.options.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if p.options.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	opts = append(opts,
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
	)
	return opts
}

// ExecuteWithBrowser borrows an instance and runs fn inside a context bound
// by both the caller's deadline and the per-operation timeout.
func (p *Pool) ExecuteWithBrowser(ctx context.Context, fn func(context.Context) error) error {
	instance, err := p.Get(ctx)
	if err != nil {
		return err
	}
	defer p.Put(instance)

	timeout := p.options.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	opCtx, cancel := context.WithTimeout(instance.ctx, timeout)
	defer cancel()

	return fn(opCtx)
}
