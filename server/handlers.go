package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/smartflow"
)

type flowView struct {
	Nodes                 []smartflow.Node       `json:"nodes"`
	Connections           []smartflow.Connection `json:"connections"`
	DefaultDestinationURL string                 `json:"defaultDestinationUrl"`
	Valid                 bool                   `json:"valid"`
	Problems              []string               `json:"problems"`
}

// view must be called with mu held.
func (s *Server) view() flowView {
	problems := s.flow.Problems()
	if problems == nil {
		problems = []string{}
	}
	return flowView{
		Nodes:                 s.flow.Nodes(),
		Connections:           s.flow.Connections(),
		DefaultDestinationURL: s.flow.DefaultURL(),
		Valid:                 len(problems) == 0,
		Problems:              problems,
	}
}

func (s *Server) getCriteria(c fiber.Ctx) error {
	s.mu.Lock()
	catalog := s.flow.Catalog()
	s.mu.Unlock()
	return c.JSON(fiber.Map{
		"criteria":  catalog.Criteria,
		"operators": smartflow.Operators,
		"defaults":  catalog.DefaultAttributes(),
	})
}

func (s *Server) getFlow(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.view())
}

func (s *Server) clearFlow(c fiber.Ctx) error {
	s.mu.Lock()
	s.flow.Clear()
	s.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) getValidity(c fiber.Ctx) error {
	s.mu.Lock()
	problems := s.flow.Problems()
	s.mu.Unlock()
	if problems == nil {
		problems = []string{}
	}
	return c.JSON(fiber.Map{"valid": len(problems) == 0, "problems": problems})
}

func (s *Server) putDefaultDestination(c fiber.Ctx) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	s.mu.Lock()
	s.flow.SetDefaultURL(body.URL)
	s.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) simulate(c fiber.Ctx) error {
	var body struct {
		Attributes  smartflow.Attributes `json:"attributes"`
		UseDefaults bool                 `json:"useDefaults"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return badBody(c)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	attrs := smartflow.Attributes{}
	if body.UseDefaults {
		attrs = s.flow.Catalog().DefaultAttributes()
	}
	for k, v := range body.Attributes {
		attrs[k] = v
	}
	sim, err := s.flow.Simulate(attrs, s.now())
	if err != nil {
		return fail(c, err)
	}
	s.logger.Info("simulated",
		"destination", sim.Destination.Label,
		"outcome", sim.Outcome,
		"steps", len(sim.Path),
	)
	return c.JSON(sim)
}

func (s *Server) getSnapshot(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.flow.Snapshot(s.now()))
}

func (s *Server) putSnapshot(c fiber.Ctx) error {
	var snap smartflow.Snapshot
	if err := c.Bind().JSON(&snap); err != nil {
		return badBody(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = smartflow.FromSnapshot(snap, smartflow.WithCatalog(s.flow.Catalog()))
	return c.JSON(s.view())
}

// ── Nodes ─────────────────────────────────────────────────────────────

func (s *Server) addCondition(c fiber.Ctx) error {
	var meta smartflow.ConditionMetadata
	if err := c.Bind().JSON(&meta); err != nil {
		return badBody(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.flow.AddConditionNode(meta)
	if err != nil {
		return fail(c, err)
	}
	n, _ := s.flow.Node(id)
	return c.Status(fiber.StatusCreated).JSON(n)
}

func (s *Server) addDestination(c fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
		URL  string `json:"destinationUrl"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.flow.AddDestinationNode(body.Name, smartflow.DestinationMetadata{URL: body.URL})
	n, _ := s.flow.Node(id)
	return c.Status(fiber.StatusCreated).JSON(n)
}

func (s *Server) removeNode(c fiber.Ctx) error {
	id, ok := intParam(c, "id")
	if !ok {
		return fail(c, smartflow.ErrInvalidRef)
	}
	s.mu.Lock()
	s.flow.RemoveNode(smartflow.NodeID(id))
	s.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) moveNode(c fiber.Ctx) error {
	id, ok := intParam(c, "id")
	if !ok {
		return fail(c, smartflow.ErrInvalidRef)
	}
	var pos smartflow.Position
	if err := c.Bind().JSON(&pos); err != nil {
		return badBody(c)
	}
	s.mu.Lock()
	err := s.flow.MoveNode(smartflow.NodeID(id), pos.X, pos.Y)
	s.mu.Unlock()
	if err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Connections ───────────────────────────────────────────────────────

func (s *Server) addConnection(c fiber.Ctx) error {
	var body smartflow.SnapshotConnection
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, added, err := s.flow.AddConnection(body.From, body.To, body.Port)
	if err != nil {
		return fail(c, err)
	}
	if !added {
		return c.JSON(fiber.Map{"discarded": true})
	}
	return c.Status(fiber.StatusCreated).JSON(conn)
}

func (s *Server) removeConnection(c fiber.Ctx) error {
	id, ok := intParam(c, "id")
	if !ok {
		return badBody(c)
	}
	s.mu.Lock()
	s.flow.RemoveConnection(smartflow.ConnectionID(id))
	s.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Saved flows ───────────────────────────────────────────────────────

func (s *Server) listFlows(c fiber.Ctx) error {
	s.mu.Lock()
	flows := s.library.List()
	s.mu.Unlock()
	if flows == nil {
		flows = []smartflow.SavedFlow{}
	}
	return c.JSON(flows)
}

// saveFlow stores the current flow under a name and clears the canvas.
func (s *Server) saveFlow(c fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, err := s.library.Save(c.Context(), body.Name, s.flow, s.now())
	if err != nil {
		return fail(c, err)
	}
	s.flow.Clear()
	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (s *Server) loadFlow(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, err := s.library.Get(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	s.flow = smartflow.FromSnapshot(saved.Snapshot, smartflow.WithCatalog(s.flow.Catalog()))
	return c.JSON(s.view())
}

func (s *Server) removeFlow(c fiber.Ctx) error {
	s.mu.Lock()
	err := s.library.Remove(c.Context(), c.Params("id"))
	s.mu.Unlock()
	if err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
