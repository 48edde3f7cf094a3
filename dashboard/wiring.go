package dashboard

import "go.uber.org/zap"

func (s *Session) wireEventHandlers(obs Observer) {
	// Live chart count feeds the session event stream and the process gauge
	s.Charts.OnChange(func(live int) {
		s.mu.Lock()
		delta := live - s.liveCharts
		s.liveCharts = live
		s.mu.Unlock()
		if obs != nil && delta != 0 {
			obs.ChartsDelta(delta)
		}
		s.Events.Emit(EventChartsChanged, ChartsChangedEvent{Live: live})
	})

	s.Events.Subscribe(func(evt Event) {
		ev := evt.Payload.(NavigatedEvent)
		s.log.Debug("navigated", zap.String("view", ev.ViewID), zap.String("location", ev.Location), zap.Uint64("gen", ev.Gen))
	}, EventNavigated)

	s.Events.Subscribe(func(evt Event) {
		ev := evt.Payload.(NavigationFailedEvent)
		s.log.Info("navigation failed", zap.String("view", ev.ViewID), zap.Error(ev.Err))
	}, EventNavigationFailed)

	s.Events.Subscribe(func(evt Event) {
		ev := evt.Payload.(ToastEvent)
		s.log.Debug("toast", zap.String("severity", string(ev.Toast.Severity)), zap.String("message", ev.Toast.Message))
	}, EventToast)
}
