package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pcgstreams/adapters/battery"
	"pcgstreams/internal/errors"
	"pcgstreams/internal/seed"
	"pcgstreams/internal/streams"
	"pcgstreams/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	defaultDraws     = 10
)

type createPlanRequest struct {
	Label      string      `json:"label"`
	Count      *int        `json:"count"`
	Seeds      []seed.JSON `json:"seeds"`
	Streams    []int       `json:"streams"`
	MasterSeed *seed.JSON  `json:"master_seed"`
	Layout     string      `json:"layout"`
}

type permutationRequest struct {
	X          []float64   `json:"x"`
	Y          []float64   `json:"y"`
	Shuffles   int         `json:"shuffles"`
	Workers    *int        `json:"workers"`
	Seeds      []seed.JSON `json:"seeds"`
	Streams    []int       `json:"streams"`
	MasterSeed *seed.JSON  `json:"master_seed"`
}

type permutationResponse struct {
	*ports.PermutationResult
	MasterSeed string `json:"master_seed,omitempty"`
}

type workerDraws struct {
	Worker int      `json:"worker"`
	Seed   string   `json:"seed"`
	Stream int      `json:"stream"`
	Values []uint32 `json:"values"`
}

type drawsResponse struct {
	PlanID uuid.UUID     `json:"plan_id"`
	Label  string        `json:"label"`
	Draws  []workerDraws `json:"draws"`
}

type namedDrawsResponse struct {
	Name   string   `json:"name"`
	Seed   string   `json:"seed"`
	Values []uint32 `json:"values"`
}

// decodeBody keeps seed conversion errors intact so they map to 422
func decodeBody(c *gin.Context, dst interface{}) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.IsSeedConversion(err) {
			return err
		}
		return errors.InvalidInput("invalid request body: " + err.Error())
	}
	return nil
}

func (s *Server) handleCreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := decodeBody(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	plan, err := s.buildPlan(req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.plans.Save(c.Request.Context(), plan); err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("[API] Created plan %s (%s, %d %s)", plan.ID, plan.Layout, plan.Count(), plan.Label)
	c.JSON(http.StatusCreated, plan)
}

func (s *Server) buildPlan(req createPlanRequest) (*streams.Plan, error) {
	label := req.Label
	if label == "" {
		label = s.cfg.Label
	}
	count := s.cfg.DefaultWorkers
	if req.Count != nil {
		count = *req.Count
	}
	if count < 0 {
		return nil, errors.InvalidInput("count must not be negative")
	}
	if count > s.cfg.MaxWorkers {
		return nil, errors.InvalidInput("count must be at most " + strconv.Itoa(s.cfg.MaxWorkers))
	}
	if err := streams.CheckLabel(label); err != nil {
		return nil, err
	}

	if req.MasterSeed == nil {
		if req.Layout != "" && req.Layout != streams.LayoutExplicit {
			return nil, errors.InvalidInput("layout " + strconv.Quote(req.Layout) + " requires master_seed")
		}
		return streams.NewPlan(label, count, seed.Values(req.Seeds), req.Streams, s.conv)
	}

	if len(req.Seeds) > 0 || len(req.Streams) > 0 {
		return nil, errors.InvalidInput("master_seed cannot be combined with seeds or streams")
	}
	master, err := s.conv.Convert(req.MasterSeed.Value)
	if err != nil {
		return nil, err
	}

	switch req.Layout {
	case "", streams.LayoutSplit:
		return streams.SplitPlan(label, master, count), nil
	case streams.LayoutDerived:
		return streams.DerivedPlan(label, master, count), nil
	default:
		return nil, errors.InvalidInput("unknown layout " + strconv.Quote(req.Layout))
	}
}

func (s *Server) handleListPlans(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if limit < 1 || limit > maxListLimit || offset < 0 {
		s.writeError(c, errors.InvalidInput("limit must be in [1, 500] and offset non-negative"))
		return
	}

	plans, err := s.plans.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *Server) handleGetPlan(c *gin.Context) {
	plan, err := s.loadPlan(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handlePlanDraws(c *gin.Context) {
	n, err := queryInt(c, "n", defaultDraws)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if n < 1 || n > s.cfg.MaxDraws {
		s.writeError(c, errors.InvalidInput("n must be in [1, "+strconv.Itoa(s.cfg.MaxDraws)+"]"))
		return
	}

	plan, err := s.loadPlan(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	values := plan.Draws(n)
	resp := drawsResponse{PlanID: plan.ID, Label: plan.Label, Draws: make([]workerDraws, len(values))}
	for i, e := range plan.Entries {
		resp.Draws[i] = workerDraws{
			Worker: e.Worker,
			Seed:   strconv.FormatUint(e.Seed, 10),
			Stream: e.Stream,
			Values: values[i],
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleNamedDraws replays the stream an operation name hashes to. Without a
// seed query parameter a fresh seed is drawn and echoed back.
func (s *Server) handleNamedDraws(c *gin.Context) {
	n, err := queryInt(c, "n", defaultDraws)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if n < 1 || n > s.cfg.MaxDraws {
		s.writeError(c, errors.InvalidInput("n must be in [1, "+strconv.Itoa(s.cfg.MaxDraws)+"]"))
		return
	}

	var master uint64
	if raw := c.Query("seed"); raw != "" {
		master, err = seed.Parse(raw)
	} else {
		master, err = seed.New()
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	name := c.Param("name")
	src, err := s.rngPort.SeededStream(c.Request.Context(), name, master)
	if err != nil {
		s.writeError(c, err)
		return
	}

	values := make([]uint32, n)
	for i := range values {
		values[i] = src.Uint32()
	}
	c.JSON(http.StatusOK, namedDrawsResponse{Name: name, Seed: strconv.FormatUint(master, 10), Values: values})
}

func (s *Server) handlePermutation(c *gin.Context) {
	var req permutationRequest
	if err := decodeBody(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	workers := s.cfg.DefaultWorkers
	if req.Workers != nil {
		workers = *req.Workers
	}
	if workers > s.cfg.MaxWorkers {
		s.writeError(c, errors.InvalidInput("workers must be at most "+strconv.Itoa(s.cfg.MaxWorkers)))
		return
	}

	run := ports.PermutationRequest{
		X:       req.X,
		Y:       req.Y,
		Workers: workers,
		Seeds:   seed.Values(req.Seeds),
		Streams: req.Streams,
	}

	// Without explicit vectors every worker shares one master seed on its
	// own stream.
	var masterText string
	if len(req.Seeds) == 0 && len(req.Streams) == 0 && workers > 0 {
		var master uint64
		var err error
		if req.MasterSeed != nil {
			master, err = s.conv.Convert(req.MasterSeed.Value)
		} else {
			master, err = seed.New()
		}
		if err != nil {
			s.writeError(c, err)
			return
		}
		masterText = strconv.FormatUint(master, 10)
		run.Seeds, run.Streams = splitVectors(masterText, workers)
	}

	shuffles := s.cfg.DefaultShuffles
	if req.Shuffles > 0 {
		shuffles = req.Shuffles
	}
	referee := battery.NewPermutationReferee(s.rngPort)
	referee.SetNumShuffles(shuffles)

	result, err := referee.Run(c.Request.Context(), run)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, permutationResponse{PermutationResult: result, MasterSeed: masterText})
}

func (s *Server) loadPlan(c *gin.Context) (*streams.Plan, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, errors.InvalidInput("plan id must be a UUID")
	}
	return s.plans.GetByID(c.Request.Context(), id)
}

func splitVectors(master string, workers int) ([]seed.Value, []int) {
	seeds := make([]seed.Value, workers)
	streamIdx := make([]int, workers)
	for i := range seeds {
		seeds[i] = seed.Text(master)
		streamIdx[i] = i
	}
	return seeds, streamIdx
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.InvalidInput(key + " must be an integer")
	}
	return v, nil
}
