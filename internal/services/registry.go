package services

import (
	"github.com/fyrsmithlabs/hubd/internal/cache"
	"github.com/fyrsmithlabs/hubd/internal/github"
	"github.com/fyrsmithlabs/hubd/internal/gitops"
	"github.com/fyrsmithlabs/hubd/internal/index"
	"github.com/fyrsmithlabs/hubd/internal/search"
	"github.com/fyrsmithlabs/hubd/internal/syncer"
	"github.com/fyrsmithlabs/hubd/internal/wiki"
)

// Registry provides access to all hubd services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Cache() *cache.Store
	Builder() *index.Builder
	Search() *search.Engine
	Syncer() *syncer.Engine
	Scheduler() *syncer.Scheduler
	Git() *gitops.Client
	Remote() *github.Client
	Watcher() *wiki.Watcher
}

// Options configures the registry with service instances. Optional services
// (Remote, Scheduler, Watcher) may be nil when disabled by configuration.
type Options struct {
	Cache     *cache.Store
	Builder   *index.Builder
	Search    *search.Engine
	Syncer    *syncer.Engine
	Scheduler *syncer.Scheduler
	Git       *gitops.Client
	Remote    *github.Client
	Watcher   *wiki.Watcher
}

// registry is the concrete implementation of Registry.
type registry struct {
	cache     *cache.Store
	builder   *index.Builder
	search    *search.Engine
	syncer    *syncer.Engine
	scheduler *syncer.Scheduler
	git       *gitops.Client
	remote    *github.Client
	watcher   *wiki.Watcher
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		cache:     opts.Cache,
		builder:   opts.Builder,
		search:    opts.Search,
		syncer:    opts.Syncer,
		scheduler: opts.Scheduler,
		git:       opts.Git,
		remote:    opts.Remote,
		watcher:   opts.Watcher,
	}
}

func (r *registry) Cache() *cache.Store          { return r.cache }
func (r *registry) Builder() *index.Builder      { return r.builder }
func (r *registry) Search() *search.Engine       { return r.search }
func (r *registry) Syncer() *syncer.Engine       { return r.syncer }
func (r *registry) Scheduler() *syncer.Scheduler { return r.scheduler }
func (r *registry) Git() *gitops.Client          { return r.git }
func (r *registry) Remote() *github.Client       { return r.remote }
func (r *registry) Watcher() *wiki.Watcher       { return r.watcher }
