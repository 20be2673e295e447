package service

import "github.com/pkg/errors"

// PlayerConnect adds id to the connected players. It reports false without
// error if id is already connected.
func (s *Service) PlayerConnect(id string) (bool, error) {
	s.mu.Lock()
	players := s.gs.Status.Players
	for _, p := range players.Ids {
		if p == id {
			s.mu.Unlock()
			return false, nil
		}
	}
	if players.Count >= players.Capacity {
		s.mu.Unlock()
		return false, errors.Wrap(ErrOutOfRange, "players are already at capacity")
	}
	players.Ids = append(players.Ids, id)
	players.Count = int64(len(players.Ids))
	s.mu.Unlock()

	s.logger.Info("player connected", "playerID", id)
	s.notify()
	return true, nil
}

// PlayerDisconnect removes id from the connected players. It reports false
// if id was not connected.
func (s *Service) PlayerDisconnect(id string) bool {
	s.mu.Lock()
	players := s.gs.Status.Players
	found := -1
	for i, p := range players.Ids {
		if p == id {
			found = i
			break
		}
	}
	if found < 0 {
		s.mu.Unlock()
		return false
	}
	players.Ids = append(players.Ids[:found], players.Ids[found+1:]...)
	players.Count = int64(len(players.Ids))
	s.mu.Unlock()

	s.logger.Info("player disconnected", "playerID", id)
	s.notify()
	return true
}

// IsPlayerConnected reports whether id is connected
func (s *Service) IsPlayerConnected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.gs.Status.Players.Ids {
		if p == id {
			return true
		}
	}
	return false
}

// ConnectedPlayers returns a copy of the connected player ids
func (s *Service) ConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.gs.Status.Players.Ids...)
}

// PlayerCount returns the number of connected players
func (s *Service) PlayerCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gs.Status.Players.Count
}

// PlayerCapacity returns the player capacity
func (s *Service) PlayerCapacity() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gs.Status.Players.Capacity
}

// SetPlayerCapacity changes the player capacity
func (s *Service) SetPlayerCapacity(capacity int64) error {
	if capacity < 0 {
		return errors.Wrapf(ErrInvalidArgument, "player capacity must not be negative, found %d", capacity)
	}
	s.mu.Lock()
	s.gs.Status.Players.Capacity = capacity
	s.mu.Unlock()
	s.notify()
	return nil
}
