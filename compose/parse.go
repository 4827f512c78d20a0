package compose

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/jkingston/fizz/internal/diag"
	"github.com/jkingston/fizz/internal/interpolate"
	"github.com/jkingston/fizz/internal/ordered"
	"github.com/jkingston/fizz/internal/values"
	"github.com/jkingston/fizz/internal/yamlevent"
)

// Options tunes three parser behaviors that default to permissive handling.
type Options struct {
	// WarnOnExtensionKeys, when true, emits a warning for top-level and
	// service-level keys beginning with "x-" instead of silently skipping
	// them. Default: false (silent skip).
	WarnOnExtensionKeys bool

	// StrictRestart, when true, emits a warning diagnostic when
	// restart-policy text does not match any recognized form, instead of
	// silently defaulting to "no".
	StrictRestart bool

	// DiagnosticBudget caps the number of diagnostics retained before
	// further ones are counted as dropped. nil means unlimited.
	DiagnosticBudget *int
}

// Errors propagated from Parse.
var (
	ErrInvalidStructure = errors.New("invalid_structure")
	ErrYAML             = errors.New("yaml_error")
)

// Parse parses a compose document with default Options.
func Parse(data []byte, env map[string]string) (*File, *diag.List, error) {
	return ParseWithOptions(data, env, Options{})
}

// ParseWithOptions parses a compose document. The returned File is nil iff
// the returned diagnostics contain an error; err is non-nil only for
// yaml_error or invalid_structure. Diagnostic-list exhaustion under
// Options.DiagnosticBudget never produces an error; it degrades to
// dropped-diagnostic counting instead (see diag.List).
func ParseWithOptions(data []byte, env map[string]string, opts Options) (*File, *diag.List, error) {
	diags := &diag.List{Budget: opts.DiagnosticBudget}
	p := &parser{
		r:       yamlevent.New(data),
		env:     env,
		diags:   diags,
		opts:    opts,
		anchors: map[string][]yamlevent.Event{},
	}

	file, err := p.parseDocument()
	if err != nil {
		return nil, diags, err
	}
	if diags.HasErrors() {
		return nil, diags, nil
	}
	return file, diags, nil
}

type anchorSession struct {
	name        string
	targetDepth int
	buf         []yamlevent.Event
}

type parser struct {
	r       *yamlevent.Reader
	env     map[string]string
	diags   *diag.List
	opts    Options

	replayStack   [][]yamlevent.Event
	activeAnchors []*anchorSession
	anchors       map[string][]yamlevent.Event
	nestDepth     int
}

func posPtr(p yamlevent.Position) *diag.Position {
	return &diag.Position{Line: p.Line, Column: p.Column, ByteIndex: p.ByteIndex}
}

// rawNext pulls the next event from an active replay buffer (alias
// substitution) or, failing that, the underlying reader.
func (p *parser) rawNext() (*yamlevent.Event, error) {
	for len(p.replayStack) > 0 {
		top := p.replayStack[len(p.replayStack)-1]
		if len(top) == 0 {
			p.replayStack = p.replayStack[:len(p.replayStack)-1]
			continue
		}
		e := top[0]
		p.replayStack[len(p.replayStack)-1] = top[1:]
		return &e, nil
	}
	ev, err := p.r.Next()
	if err != nil {
		if rerr := p.r.LastError(); rerr != nil {
			p.diags.AddError(posPtr(rerr.Position), "%s", rerr.Message)
		}
		return nil, errors.Wrap(ErrYAML, err.Error())
	}
	return ev, nil
}

// nextEvent returns the next logical event, transparently substituting
// aliases with the anchored subtree they reference — an alias at a value
// position behaves as if the anchored subtree had been written there
// directly — and tracking anchor definitions as they are streamed past, so
// later aliases can resolve regardless of how deeply nested the defining
// subtree is.
func (p *parser) nextEvent() (*yamlevent.Event, error) {
	ev, err := p.rawNext()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, nil
	}

	if ev.Kind == yamlevent.Alias {
		name := string(ev.Value)
		recorded, ok := p.anchors[name]
		if !ok {
			p.diags.AddWarning(posPtr(ev.Start), "unresolved alias: %s", name)
			return &yamlevent.Event{Kind: yamlevent.Scalar, Start: ev.Start, End: ev.End}, nil
		}
		replay := make([]yamlevent.Event, len(recorded))
		copy(replay, recorded)
		p.replayStack = append(p.replayStack, replay)
		return p.nextEvent()
	}

	for _, s := range p.activeAnchors {
		s.buf = append(s.buf, *ev)
	}

	switch ev.Kind {
	case yamlevent.MappingStart, yamlevent.SequenceStart:
		p.nestDepth++
		if ev.Anchor != "" {
			p.activeAnchors = append(p.activeAnchors, &anchorSession{
				name:        ev.Anchor,
				targetDepth: p.nestDepth - 1,
				buf:         []yamlevent.Event{*ev},
			})
		}
	case yamlevent.MappingEnd, yamlevent.SequenceEnd:
		p.nestDepth--
		for len(p.activeAnchors) > 0 {
			last := p.activeAnchors[len(p.activeAnchors)-1]
			if last.targetDepth != p.nestDepth {
				break
			}
			p.anchors[last.name] = last.buf
			p.activeAnchors = p.activeAnchors[:len(p.activeAnchors)-1]
		}
	case yamlevent.Scalar:
		if ev.Anchor != "" {
			p.anchors[ev.Anchor] = []yamlevent.Event{*ev}
		}
	}

	return ev, nil
}

// parseDocument drives the top-level state machine: stream_start,
// document_start, a single root mapping, then drains to stream_end.
func (p *parser) parseDocument() (*File, error) {
	if _, err := p.expect(yamlevent.StreamStart); err != nil {
		return nil, err
	}
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != yamlevent.DocumentStart {
		p.diags.AddError(nil, "invalid_structure: expected a YAML document")
		return nil, errors.Wrap(ErrInvalidStructure, "missing document")
	}

	root, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if root == nil || root.Kind != yamlevent.MappingStart {
		p.diags.AddError(posPtr(startOrZero(root)), "invalid_structure: root must be a mapping")
		return nil, errors.Wrap(ErrInvalidStructure, "root is not a mapping")
	}

	file := &File{
		Services: ordered.NewMap[*Service](0),
		Volumes:  ordered.NewMap[*Volume](0),
		Networks: ordered.NewMap[*Network](0),
	}

	if err := p.parseRootMapping(file); err != nil {
		return nil, err
	}

	// Drain any remaining events (further documents, stream end) without
	// acting on them: a compose document is a single YAML document by
	// convention; extra documents are diagnosed once and ignored.
	sawExtraDocument := false
	for {
		ev, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			break
		}
		if ev.Kind == yamlevent.DocumentStart && !sawExtraDocument {
			sawExtraDocument = true
			p.diags.AddWarning(posPtr(ev.Start), "multiple YAML documents in input; only the first is used")
		}
	}

	return file, nil
}

func (p *parser) parseRootMapping(file *File) error {
	for {
		keyEv, err := p.nextEvent()
		if err != nil {
			return err
		}
		if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
			return nil
		}
		if keyEv.Kind != yamlevent.Scalar {
			p.diags.AddWarning(posPtr(keyEv.Start), "unexpected non-scalar root key; skipping")
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}
		key := string(keyEv.Value)

		switch key {
		case "services":
			if err := p.parseNamedMap(func(name string) error {
				svc, err := p.parseService(name)
				if err != nil {
					return err
				}
				file.Services.Set(name, svc)
				return nil
			}); err != nil {
				return err
			}
		case "volumes":
			if err := p.parseNamedMap(func(name string) error {
				vol, err := p.parseVolumeBody(name)
				if err != nil {
					return err
				}
				file.Volumes.Set(name, vol)
				return nil
			}); err != nil {
				return err
			}
		case "networks":
			if err := p.parseNamedMap(func(name string) error {
				net, err := p.parseNetworkBody(name)
				if err != nil {
					return err
				}
				file.Networks.Set(name, net)
				return nil
			}); err != nil {
				return err
			}
		case "name":
			s, err := p.readInterpolatedScalar()
			if err != nil {
				return err
			}
			file.Name = s
		case "version":
			if err := p.skipValue(); err != nil {
				return err
			}
		default:
			if isExtensionKey(key) {
				if p.opts.WarnOnExtensionKeys {
					p.diags.AddWarning(posPtr(keyEv.Start), "unknown key: %s", key)
				}
			} else {
				p.diags.AddWarning(posPtr(keyEv.Start), "unknown key: %s", key)
			}
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}
}

func isExtensionKey(key string) bool {
	return len(key) >= 2 && key[0] == 'x' && key[1] == '-'
}

// parseNamedMap expects a mapping_start, then for each key calls body(name)
// to parse that entry's value (body is responsible for consuming exactly
// one value's worth of events), then expects mapping_end. If the value
// position is not a mapping, a warning is emitted and the value skipped.
func (p *parser) parseNamedMap(body func(name string) error) error {
	ev, err := p.nextEvent()
	if err != nil {
		return err
	}
	if ev == nil || ev.Kind != yamlevent.MappingStart {
		p.diags.AddWarning(posPtr(startOrZero(ev)), "expected a mapping")
		return p.skipValueAfter(ev)
	}

	for {
		keyEv, err := p.nextEvent()
		if err != nil {
			return err
		}
		if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
			return nil
		}
		if keyEv.Kind != yamlevent.Scalar {
			p.diags.AddWarning(posPtr(keyEv.Start), "unexpected non-scalar key; skipping")
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}
		if err := body(string(keyEv.Value)); err != nil {
			return err
		}
	}
}

// startOrZero lets call sites safely format a position even when the event
// pointer itself is nil (end of stream reached where a value was expected).
func startOrZero(e *yamlevent.Event) yamlevent.Position {
	if e == nil {
		return yamlevent.Position{}
	}
	return e.Start
}

// skipValue reads the next event (the value for a key just consumed) and
// discards its entire subtree.
func (p *parser) skipValue() error {
	ev, err := p.nextEvent()
	if err != nil {
		return err
	}
	return p.skipValueAfter(ev)
}

// skipValueAfter discards the subtree belonging to ev, which has already
// been read (e.g. because the caller needed to inspect its Kind first).
func (p *parser) skipValueAfter(ev *yamlevent.Event) error {
	if ev == nil {
		return nil
	}
	switch ev.Kind {
	case yamlevent.Scalar, yamlevent.Alias:
		return nil
	case yamlevent.MappingStart, yamlevent.SequenceStart:
		depth := 1
		for depth > 0 {
			next, err := p.nextEvent()
			if err != nil {
				return err
			}
			if next == nil {
				return nil
			}
			switch next.Kind {
			case yamlevent.MappingStart, yamlevent.SequenceStart:
				depth++
			case yamlevent.MappingEnd, yamlevent.SequenceEnd:
				depth--
			}
		}
		return nil
	default:
		return nil
	}
}

// readInterpolatedScalar reads a scalar (or alias/unresolved->empty) value
// and runs it through variable interpolation. String fields go through this
// path; numeric, boolean, and enumerated fields use readRawScalar instead.
func (p *parser) readInterpolatedScalar() (string, error) {
	raw, pos, err := p.readRawScalar()
	if err != nil {
		return "", err
	}
	out, ierr := interpolate.Interpolate(raw, p.env)
	if ierr != nil {
		p.diags.AddError(posPtr(pos), "interpolation error: %s", ierr.Error())
		return "", nil
	}
	return out, nil
}

// readRawScalar reads the next value event as a literal scalar string, with
// no interpolation, for numeric/boolean/enumerated fields.
func (p *parser) readRawScalar() (string, yamlevent.Position, error) {
	ev, err := p.nextEvent()
	if err != nil {
		return "", yamlevent.Position{}, err
	}
	if ev == nil {
		return "", yamlevent.Position{}, nil
	}
	if ev.Kind != yamlevent.Scalar {
		p.diags.AddWarning(posPtr(ev.Start), "expected a scalar value")
		if err := p.skipValueAfter(ev); err != nil {
			return "", ev.Start, err
		}
		return "", ev.Start, nil
	}
	return string(ev.Value), ev.Start, nil
}

// readScalarOrList accepts a single scalar as a one-element list (never
// split on whitespace) or a sequence as one element per scalar. Each
// element is interpolated.
func (p *parser) readScalarOrList() ([]string, error) {
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, nil
	}
	switch ev.Kind {
	case yamlevent.Scalar:
		s, ierr := interpolate.Interpolate(string(ev.Value), p.env)
		if ierr != nil {
			p.diags.AddError(posPtr(ev.Start), "interpolation error: %s", ierr.Error())
			return nil, nil
		}
		return []string{s}, nil
	case yamlevent.SequenceStart:
		var out []string
		for {
			item, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if item == nil || item.Kind == yamlevent.SequenceEnd {
				return out, nil
			}
			if item.Kind != yamlevent.Scalar {
				p.diags.AddWarning(posPtr(item.Start), "expected a scalar list item")
				if err := p.skipValueAfter(item); err != nil {
					return nil, err
				}
				continue
			}
			s, ierr := interpolate.Interpolate(string(item.Value), p.env)
			if ierr != nil {
				p.diags.AddError(posPtr(item.Start), "interpolation error: %s", ierr.Error())
				continue
			}
			out = append(out, s)
		}
	default:
		p.diags.AddWarning(posPtr(ev.Start), "expected a scalar or list")
		return nil, p.skipValueAfter(ev)
	}
}

func (p *parser) expect(kind yamlevent.Kind) (*yamlevent.Event, error) {
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != kind {
		return ev, errors.Wrapf(ErrYAML, "expected event kind %d", kind)
	}
	return ev, nil
}

// parseService parses one "services.<name>" entry.
func (p *parser) parseService(name string) (*Service, error) {
	svc := &Service{
		Name:            name,
		Environment:     ordered.NewMap[string](0),
		Labels:          ordered.NewMap[string](0),
		Sysctls:         ordered.NewMap[string](0),
		Restart:         values.RestartPolicy{Policy: values.RestartNo},
		StopGracePeriod: DefaultStopGracePeriod,
	}

	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != yamlevent.MappingStart {
		p.diags.AddWarning(posPtr(startOrZero(ev)), "service %q: expected a mapping", name)
		if err := p.skipValueAfter(ev); err != nil {
			return nil, err
		}
		return svc, nil
	}

	for {
		keyEv, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
			return svc, nil
		}
		if keyEv.Kind != yamlevent.Scalar {
			p.diags.AddWarning(posPtr(keyEv.Start), "service %q: unexpected non-scalar key", name)
			if err := p.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		key := string(keyEv.Value)
		if err := p.parseServiceKey(svc, key, keyEv); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseServiceKey(svc *Service, key string, keyEv *yamlevent.Event) error {
	switch key {
	case "image":
		s, err := p.readInterpolatedScalar()
		if err != nil {
			return err
		}
		svc.Image = s
	case "build":
		b, err := p.parseBuild()
		if err != nil {
			return err
		}
		svc.Build = b
	case "ports":
		ports, err := p.parsePorts()
		if err != nil {
			return err
		}
		svc.Ports = ports
	case "environment":
		env, err := p.parseEnvironment()
		if err != nil {
			return err
		}
		svc.Environment = env
	case "depends_on":
		deps, err := p.parseDependsOn()
		if err != nil {
			return err
		}
		svc.DependsOn = deps
	case "healthcheck":
		hc, err := p.parseHealthcheck()
		if err != nil {
			return err
		}
		svc.Healthcheck = hc
	case "volumes":
		mounts, err := p.parseVolumeMounts()
		if err != nil {
			return err
		}
		svc.Volumes = mounts
	case "command":
		cmd, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.Command = cmd
	case "entrypoint":
		ep, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.Entrypoint = ep
	case "working_dir":
		s, err := p.readInterpolatedScalar()
		if err != nil {
			return err
		}
		svc.WorkingDir = s
	case "user":
		s, err := p.readInterpolatedScalar()
		if err != nil {
			return err
		}
		svc.User = s
	case "container_name":
		s, err := p.readInterpolatedScalar()
		if err != nil {
			return err
		}
		svc.ContainerName = s
	case "hostname":
		s, err := p.readInterpolatedScalar()
		if err != nil {
			return err
		}
		svc.Hostname = s
	case "domainname":
		s, err := p.readInterpolatedScalar()
		if err != nil {
			return err
		}
		svc.Domainname = s
	case "restart":
		raw, pos, err := p.readRawScalar()
		if err != nil {
			return err
		}
		rp, ok := values.ParseRestartPolicy(raw)
		if !ok && p.opts.StrictRestart {
			p.diags.AddWarning(posPtr(pos), "unrecognized restart policy: %q", raw)
		}
		svc.Restart = rp
	case "init":
		b, err := p.readBool()
		if err != nil {
			return err
		}
		svc.RunInit = b
	case "read_only":
		b, err := p.readBool()
		if err != nil {
			return err
		}
		svc.ReadOnly = b
	case "privileged":
		b, err := p.readBool()
		if err != nil {
			return err
		}
		svc.Privileged = b
	case "stop_signal":
		s, err := p.readInterpolatedScalar()
		if err != nil {
			return err
		}
		svc.StopSignal = s
	case "stop_grace_period":
		raw, pos, err := p.readRawScalar()
		if err != nil {
			return err
		}
		d, derr := values.ParseDuration(raw)
		if derr != nil {
			p.diags.AddError(posPtr(pos), "%s", derr.Error())
			return nil
		}
		svc.StopGracePeriod = d
	case "expose":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.Expose = l
	case "dns":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.DNS = l
	case "dns_search":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.DNSSearch = l
	case "extra_hosts":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.ExtraHosts = l
	case "cap_add":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.CapAdd = l
	case "cap_drop":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.CapDrop = l
	case "networks":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.Networks = l
	case "labels":
		labels, err := p.parseLabels()
		if err != nil {
			return err
		}
		svc.Labels = labels
	case "env_file":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.EnvFile = l
	case "mem_limit":
		raw, pos, err := p.readRawScalar()
		if err != nil {
			return err
		}
		n, berr := values.ParseByteSize(raw)
		if berr != nil {
			p.diags.AddError(posPtr(pos), "%s", berr.Error())
			return nil
		}
		svc.MemLimit = &n
	case "mem_reservation":
		raw, pos, err := p.readRawScalar()
		if err != nil {
			return err
		}
		n, berr := values.ParseByteSize(raw)
		if berr != nil {
			p.diags.AddError(posPtr(pos), "%s", berr.Error())
			return nil
		}
		svc.MemReservation = &n
	case "cpus":
		raw, pos, err := p.readRawScalar()
		if err != nil {
			return err
		}
		f, ferr := parseFloat(raw)
		if ferr != nil {
			p.diags.AddError(posPtr(pos), "invalid cpus value: %q", raw)
			return nil
		}
		svc.CPUs = &f
	case "pids_limit":
		raw, pos, err := p.readRawScalar()
		if err != nil {
			return err
		}
		n, ierr := parseInt(raw)
		if ierr != nil {
			p.diags.AddError(posPtr(pos), "invalid pids_limit value: %q", raw)
			return nil
		}
		svc.PidsLimit = &n
	case "logging":
		l, err := p.parseLogging()
		if err != nil {
			return err
		}
		svc.Logging = l
	case "profiles":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.Profiles = l
	case "tmpfs":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.Tmpfs = l
	case "security_opt":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.SecurityOpt = l
	case "devices":
		l, err := p.readScalarOrList()
		if err != nil {
			return err
		}
		svc.Devices = l
	case "sysctls":
		sysctls, err := p.parseLabels()
		if err != nil {
			return err
		}
		svc.Sysctls = sysctls
	default:
		if isExtensionKey(key) {
			if p.opts.WarnOnExtensionKeys {
				p.diags.AddWarning(posPtr(keyEv.Start), "service %q: unknown key: %s", svc.Name, key)
			}
		} else {
			p.diags.AddWarning(posPtr(keyEv.Start), "service %q: unknown key: %s", svc.Name, key)
		}
		return p.skipValue()
	}
	return nil
}

func (p *parser) readBool() (bool, error) {
	raw, pos, err := p.readRawScalar()
	if err != nil {
		return false, err
	}
	switch raw {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	default:
		p.diags.AddWarning(posPtr(pos), "expected a boolean, got %q", raw)
		return false, nil
	}
}

func (p *parser) parsePorts() ([]values.Port, error) {
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != yamlevent.SequenceStart {
		p.diags.AddWarning(posPtr(startOrZero(ev)), "ports: expected a list")
		return nil, p.skipValueAfter(ev)
	}
	var out []values.Port
	for {
		item, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if item == nil || item.Kind == yamlevent.SequenceEnd {
			return out, nil
		}
		if item.Kind != yamlevent.Scalar {
			p.diags.AddWarning(posPtr(item.Start), "ports: expected a scalar entry")
			if err := p.skipValueAfter(item); err != nil {
				return nil, err
			}
			continue
		}
		port, perr := values.ParsePort(string(item.Value))
		if perr != nil {
			p.diags.AddError(posPtr(item.Start), "%s", perr.Error())
			continue
		}
		out = append(out, port)
	}
}

func (p *parser) parseVolumeMounts() ([]values.VolumeMount, error) {
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != yamlevent.SequenceStart {
		p.diags.AddWarning(posPtr(startOrZero(ev)), "volumes: expected a list")
		return nil, p.skipValueAfter(ev)
	}
	var out []values.VolumeMount
	for {
		item, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if item == nil || item.Kind == yamlevent.SequenceEnd {
			return out, nil
		}
		if item.Kind != yamlevent.Scalar {
			p.diags.AddWarning(posPtr(item.Start), "volumes: expected a scalar entry")
			if err := p.skipValueAfter(item); err != nil {
				return nil, err
			}
			continue
		}
		mount, merr := values.ParseVolumeMount(string(item.Value))
		if merr != nil {
			p.diags.AddError(posPtr(item.Start), "%s", merr.Error())
			continue
		}
		out = append(out, mount)
	}
}

// parseEnvironment accepts either a mapping of KEY: value (values
// interpolated, absent value -> "") or a sequence of "KEY=VALUE" strings
// (VALUE interpolated; entries without "=" warn).
func (p *parser) parseEnvironment() (*ordered.Map[string], error) {
	out := ordered.NewMap[string](0)
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return out, nil
	}
	switch ev.Kind {
	case yamlevent.MappingStart:
		for {
			keyEv, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
				return out, nil
			}
			if keyEv.Kind != yamlevent.Scalar {
				p.diags.AddWarning(posPtr(keyEv.Start), "environment: unexpected non-scalar key")
				if err := p.skipValue(); err != nil {
					return nil, err
				}
				continue
			}
			valEv, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if valEv != nil && valEv.Kind == yamlevent.Scalar {
				s, ierr := interpolate.Interpolate(string(valEv.Value), p.env)
				if ierr != nil {
					p.diags.AddError(posPtr(valEv.Start), "interpolation error: %s", ierr.Error())
					continue
				}
				out.Set(string(keyEv.Value), s)
			} else {
				// Non-scalar value -> empty string. An absent value arrives
				// as an empty scalar and is handled above.
				out.Set(string(keyEv.Value), "")
				if err := p.skipValueAfter(valEv); err != nil {
					return nil, err
				}
			}
		}
	case yamlevent.SequenceStart:
		for {
			item, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if item == nil || item.Kind == yamlevent.SequenceEnd {
				return out, nil
			}
			if item.Kind != yamlevent.Scalar {
				p.diags.AddWarning(posPtr(item.Start), "environment: expected a scalar entry")
				if err := p.skipValueAfter(item); err != nil {
					return nil, err
				}
				continue
			}
			key, val, ok := splitKV(string(item.Value))
			if !ok {
				p.diags.AddWarning(posPtr(item.Start), "environment entry missing '=': %q", string(item.Value))
				continue
			}
			s, ierr := interpolate.Interpolate(val, p.env)
			if ierr != nil {
				p.diags.AddError(posPtr(item.Start), "interpolation error: %s", ierr.Error())
				continue
			}
			out.Set(key, s)
		}
	default:
		p.diags.AddWarning(posPtr(ev.Start), "environment: expected a mapping or list")
		return out, p.skipValueAfter(ev)
	}
}

// parseLabels mirrors parseEnvironment's dual form, except list-form values
// are literal metadata and are never interpolated, and a missing "=" simply
// stores an empty value instead of warning.
func (p *parser) parseLabels() (*ordered.Map[string], error) {
	out := ordered.NewMap[string](0)
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return out, nil
	}
	switch ev.Kind {
	case yamlevent.MappingStart:
		for {
			keyEv, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
				return out, nil
			}
			if keyEv.Kind != yamlevent.Scalar {
				p.diags.AddWarning(posPtr(keyEv.Start), "labels: unexpected non-scalar key")
				if err := p.skipValue(); err != nil {
					return nil, err
				}
				continue
			}
			valEv, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if valEv != nil && valEv.Kind == yamlevent.Scalar {
				s, ierr := interpolate.Interpolate(string(valEv.Value), p.env)
				if ierr != nil {
					p.diags.AddError(posPtr(valEv.Start), "interpolation error: %s", ierr.Error())
					continue
				}
				out.Set(string(keyEv.Value), s)
			} else {
				out.Set(string(keyEv.Value), "")
				if err := p.skipValueAfter(valEv); err != nil {
					return nil, err
				}
			}
		}
	case yamlevent.SequenceStart:
		for {
			item, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if item == nil || item.Kind == yamlevent.SequenceEnd {
				return out, nil
			}
			if item.Kind != yamlevent.Scalar {
				p.diags.AddWarning(posPtr(item.Start), "labels: expected a scalar entry")
				if err := p.skipValueAfter(item); err != nil {
					return nil, err
				}
				continue
			}
			key, val, ok := splitKV(string(item.Value))
			if !ok {
				out.Set(string(item.Value), "")
				continue
			}
			out.Set(key, val)
		}
	default:
		p.diags.AddWarning(posPtr(ev.Start), "labels: expected a mapping or list")
		return out, p.skipValueAfter(ev)
	}
}

// parseDependsOn implements both depends_on forms: a list of service names
// (condition defaults to service_started) or a mapping of name -> {condition}.
func (p *parser) parseDependsOn() ([]Dependency, error) {
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, nil
	}
	switch ev.Kind {
	case yamlevent.SequenceStart:
		var out []Dependency
		for {
			item, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if item == nil || item.Kind == yamlevent.SequenceEnd {
				return out, nil
			}
			if item.Kind != yamlevent.Scalar {
				p.diags.AddWarning(posPtr(item.Start), "depends_on: expected a scalar service name")
				if err := p.skipValueAfter(item); err != nil {
					return nil, err
				}
				continue
			}
			out = append(out, Dependency{Service: string(item.Value), Condition: values.ServiceStarted})
		}
	case yamlevent.MappingStart:
		var out []Dependency
		for {
			keyEv, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
				return out, nil
			}
			if keyEv.Kind != yamlevent.Scalar {
				p.diags.AddWarning(posPtr(keyEv.Start), "depends_on: unexpected non-scalar key")
				if err := p.skipValue(); err != nil {
					return nil, err
				}
				continue
			}
			dep := Dependency{Service: string(keyEv.Value), Condition: values.ServiceStarted}

			bodyEv, err := p.nextEvent()
			if err != nil {
				return nil, err
			}
			if bodyEv == nil || bodyEv.Kind != yamlevent.MappingStart {
				if err := p.skipValueAfter(bodyEv); err != nil {
					return nil, err
				}
				out = append(out, dep)
				continue
			}
			for {
				subKeyEv, err := p.nextEvent()
				if err != nil {
					return nil, err
				}
				if subKeyEv == nil || subKeyEv.Kind == yamlevent.MappingEnd {
					break
				}
				if subKeyEv.Kind != yamlevent.Scalar {
					p.diags.AddWarning(posPtr(subKeyEv.Start), "depends_on: unexpected non-scalar key")
					if err := p.skipValue(); err != nil {
						return nil, err
					}
					continue
				}
				switch string(subKeyEv.Value) {
				case "condition":
					raw, pos, err := p.readRawScalar()
					if err != nil {
						return nil, err
					}
					cond, ok := values.ParseDependencyCondition(raw)
					if !ok {
						p.diags.AddWarning(posPtr(pos), "depends_on: unknown condition %q", raw)
						continue
					}
					dep.Condition = cond
				default:
					if err := p.skipValue(); err != nil {
						return nil, err
					}
				}
			}
			out = append(out, dep)
		}
	default:
		p.diags.AddWarning(posPtr(ev.Start), "depends_on: expected a mapping or list")
		return nil, p.skipValueAfter(ev)
	}
}

// parseHealthcheck parses the healthcheck block, including the "test"
// field's scalar-or-list form with no shell tokenization.
func (p *parser) parseHealthcheck() (*Healthcheck, error) {
	hc := &Healthcheck{
		Interval: DefaultHealthcheckInterval,
		Timeout:  DefaultHealthcheckTimeout,
		Retries:  DefaultHealthcheckRetries,
	}

	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != yamlevent.MappingStart {
		p.diags.AddWarning(posPtr(startOrZero(ev)), "healthcheck: expected a mapping")
		return hc, p.skipValueAfter(ev)
	}

	for {
		keyEv, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
			return hc, nil
		}
		if keyEv.Kind != yamlevent.Scalar {
			p.diags.AddWarning(posPtr(keyEv.Start), "healthcheck: unexpected non-scalar key")
			if err := p.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		switch string(keyEv.Value) {
		case "test":
			cmd, err := p.readScalarOrList()
			if err != nil {
				return nil, err
			}
			hc.TestCmd = cmd
		case "interval":
			raw, pos, err := p.readRawScalar()
			if err != nil {
				return nil, err
			}
			d, derr := values.ParseDuration(raw)
			if derr != nil {
				p.diags.AddError(posPtr(pos), "%s", derr.Error())
				continue
			}
			hc.Interval = d
		case "timeout":
			raw, pos, err := p.readRawScalar()
			if err != nil {
				return nil, err
			}
			d, derr := values.ParseDuration(raw)
			if derr != nil {
				p.diags.AddError(posPtr(pos), "%s", derr.Error())
				continue
			}
			hc.Timeout = d
		case "start_period":
			raw, pos, err := p.readRawScalar()
			if err != nil {
				return nil, err
			}
			d, derr := values.ParseDuration(raw)
			if derr != nil {
				p.diags.AddError(posPtr(pos), "%s", derr.Error())
				continue
			}
			hc.StartPeriod = d
		case "retries":
			raw, pos, err := p.readRawScalar()
			if err != nil {
				return nil, err
			}
			n, ierr := parseInt(raw)
			if ierr != nil {
				p.diags.AddError(posPtr(pos), "invalid retries value: %q", raw)
				continue
			}
			hc.Retries = int(n)
		default:
			p.diags.AddWarning(posPtr(keyEv.Start), "healthcheck: unknown key: %s", string(keyEv.Value))
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		}
	}
}

// parseBuild accepts either a bare scalar build context or a full mapping.
func (p *parser) parseBuild() (*Build, error) {
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, nil
	}
	if ev.Kind == yamlevent.Scalar {
		s, ierr := interpolate.Interpolate(string(ev.Value), p.env)
		if ierr != nil {
			p.diags.AddError(posPtr(ev.Start), "interpolation error: %s", ierr.Error())
			return nil, nil
		}
		return &Build{Context: s}, nil
	}
	if ev.Kind != yamlevent.MappingStart {
		p.diags.AddWarning(posPtr(ev.Start), "build: expected a scalar or mapping")
		return nil, p.skipValueAfter(ev)
	}

	b := &Build{Args: ordered.NewMap[string](0)}
	for {
		keyEv, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
			return b, nil
		}
		if keyEv.Kind != yamlevent.Scalar {
			p.diags.AddWarning(posPtr(keyEv.Start), "build: unexpected non-scalar key")
			if err := p.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		switch string(keyEv.Value) {
		case "context":
			s, err := p.readInterpolatedScalar()
			if err != nil {
				return nil, err
			}
			b.Context = s
		case "dockerfile":
			s, err := p.readInterpolatedScalar()
			if err != nil {
				return nil, err
			}
			b.Dockerfile = s
		case "target":
			s, err := p.readInterpolatedScalar()
			if err != nil {
				return nil, err
			}
			b.Target = s
		case "args":
			args, err := p.parseEnvironment()
			if err != nil {
				return nil, err
			}
			b.Args = args
		default:
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		}
	}
}

// parseLogging parses the "logging" block: driver plus an ordered map of
// options.
func (p *parser) parseLogging() (*Logging, error) {
	l := &Logging{Options: ordered.NewMap[string](0)}
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != yamlevent.MappingStart {
		p.diags.AddWarning(posPtr(startOrZero(ev)), "logging: expected a mapping")
		return l, p.skipValueAfter(ev)
	}
	for {
		keyEv, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
			return l, nil
		}
		if keyEv.Kind != yamlevent.Scalar {
			p.diags.AddWarning(posPtr(keyEv.Start), "logging: unexpected non-scalar key")
			if err := p.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		switch string(keyEv.Value) {
		case "driver":
			s, err := p.readInterpolatedScalar()
			if err != nil {
				return nil, err
			}
			l.Driver = s
		case "options":
			opts, err := p.parseEnvironment()
			if err != nil {
				return nil, err
			}
			l.Options = opts
		default:
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		}
	}
}

// parseVolumeBody and parseNetworkBody capture driver, external, and labels;
// any other key under a volume/network body is skipped-and-warned.
func (p *parser) parseVolumeBody(name string) (*Volume, error) {
	vol := &Volume{Name: name, Labels: ordered.NewMap[string](0)}
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != yamlevent.MappingStart {
		return vol, p.skipValueAfter(ev)
	}
	for {
		keyEv, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
			return vol, nil
		}
		if keyEv.Kind != yamlevent.Scalar {
			if err := p.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		switch string(keyEv.Value) {
		case "driver":
			s, err := p.readInterpolatedScalar()
			if err != nil {
				return nil, err
			}
			vol.Driver = s
		case "external":
			b, err := p.readBool()
			if err != nil {
				return nil, err
			}
			vol.External = b
		case "labels":
			labels, err := p.parseLabels()
			if err != nil {
				return nil, err
			}
			vol.Labels = labels
		default:
			p.diags.AddWarning(posPtr(keyEv.Start), "volume %q: unknown key: %s", name, string(keyEv.Value))
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		}
	}
}

func (p *parser) parseNetworkBody(name string) (*Network, error) {
	net := &Network{Name: name, Labels: ordered.NewMap[string](0)}
	ev, err := p.nextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.Kind != yamlevent.MappingStart {
		return net, p.skipValueAfter(ev)
	}
	for {
		keyEv, err := p.nextEvent()
		if err != nil {
			return nil, err
		}
		if keyEv == nil || keyEv.Kind == yamlevent.MappingEnd {
			return net, nil
		}
		if keyEv.Kind != yamlevent.Scalar {
			if err := p.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		switch string(keyEv.Value) {
		case "driver":
			s, err := p.readInterpolatedScalar()
			if err != nil {
				return nil, err
			}
			net.Driver = s
		case "external":
			b, err := p.readBool()
			if err != nil {
				return nil, err
			}
			net.External = b
		case "labels":
			labels, err := p.parseLabels()
			if err != nil {
				return nil, err
			}
			net.Labels = labels
		default:
			p.diags.AddWarning(posPtr(keyEv.Start), "network %q: unknown key: %s", name, string(keyEv.Value))
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		}
	}
}

func splitKV(s string) (key, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
