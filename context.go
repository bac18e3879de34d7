package otc

// Context is the library context: the immutable driver registry plus
// per-driver init bookkeeping.
type Context struct {
	drivers     []Driver
	initialized map[Driver]bool
}

// NewContext builds a context over an explicit driver registry. The
// registry is immutable after construction.
func NewContext(drivers []Driver) (*Context, error) {
	for _, d := range drivers {
		if d == nil {
			return nil, ErrArg
		}
	}
	return &Context{
		drivers:     drivers,
		initialized: make(map[Driver]bool),
	}, nil
}

// Drivers returns the registry.
func (c *Context) Drivers() []Driver { return c.drivers }

// DriverByName finds a registered driver by its short name.
func (c *Context) DriverByName(name string) Driver {
	for _, d := range c.drivers {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// DriverInit initializes a driver, once. The driver receives a
// back-reference to the context.
func DriverInit(ctx *Context, driver Driver) error {
	if ctx == nil || driver == nil {
		return ErrArg
	}
	registered := false
	for _, d := range ctx.drivers {
		if d == driver {
			registered = true
			break
		}
	}
	if !registered {
		logErr("Driver %s not in registry", driver.Name())
		return ErrArg
	}
	if ctx.initialized[driver] {
		logErr("Driver %s already initialized", driver.Name())
		return ErrArg
	}
	logDbg("Initializing driver %s", driver.Name())
	if err := driver.Init(ctx); err != nil {
		return err
	}
	ctx.initialized[driver] = true
	return nil
}

// Close cleans up every initialized driver and releases the context.
func (c *Context) Close() error {
	var firstErr error
	for _, d := range c.drivers {
		if !c.initialized[d] {
			continue
		}
		if err := d.Cleanup(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.initialized, d)
	}
	return firstErr
}
