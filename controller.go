package endpoints

// Controller binds one adapter and a set of default options to the four
// handler factories. Each factory is meant to be called once per route at
// startup; the handler it returns is reused for every request.
type Controller struct {
	defaults Options
}

// NewController returns a Controller whose handlers start from opts.
// opts.Adapter is required.
func NewController(opts Options) (*Controller, error) {
	if opts.Adapter == nil {
		return nil, ErrNoAdapter
	}
	opts.Validators = append([]RequestValidator(nil), opts.Validators...)
	opts.Relations = append([]string(nil), opts.Relations...)
	return &Controller{defaults: opts}, nil
}

// Adapter returns the controller's adapter.
func (c *Controller) Adapter() Adapter { return c.defaults.Adapter }

// Create returns a handler for create requests.
func (c *Controller) Create(opts ...Options) (*Handler, error) {
	return c.build(MethodCreate, opts)
}

// Read returns a handler for read requests.
func (c *Controller) Read(opts ...Options) (*Handler, error) {
	return c.build(MethodRead, opts)
}

// Update returns a handler for update requests.
func (c *Controller) Update(opts ...Options) (*Handler, error) {
	return c.build(MethodUpdate, opts)
}

// Destroy returns a handler for destroy requests.
func (c *Controller) Destroy(opts ...Options) (*Handler, error) {
	return c.build(MethodDestroy, opts)
}

// MustCreate is like Create but panics on a configuration error.
func (c *Controller) MustCreate(opts ...Options) *Handler { return must(c.Create(opts...)) }

// MustRead is like Read but panics on a configuration error.
func (c *Controller) MustRead(opts ...Options) *Handler { return must(c.Read(opts...)) }

// MustUpdate is like Update but panics on a configuration error.
func (c *Controller) MustUpdate(opts ...Options) *Handler { return must(c.Update(opts...)) }

// MustDestroy is like Destroy but panics on a configuration error.
func (c *Controller) MustDestroy(opts ...Options) *Handler { return must(c.Destroy(opts...)) }

func (c *Controller) build(method Method, opts []Options) (*Handler, error) {
	layers := append([]Options{c.defaults}, opts...)
	cfg := Configure(method, layers...)
	if failures := Validate(method, cfg.Adapter, cfg); len(failures) > 0 {
		return nil, &ConfigError{Method: method, Failures: failures}
	}
	return Process(cfg, cfg.Adapter), nil
}

func must(h *Handler, err error) *Handler {
	if err != nil {
		panic(err)
	}
	return h
}
