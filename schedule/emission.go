/*
emission.go - Emission date resolution

PURPOSE:
  Computes the date an obligation is considered issued for a given
  period. Emission is distinct from the due date: a utility bill may be
  emitted on the 5th and due on the 20th.

MODES:
  FIXED_DAY:     day N of the period's month, clamped to month end
  DATE_RANGE:    a [startDay, endDay] window of the period's month; the
                 window start is the nominal emission reference recorded
                 on the schedule row
  SPECIFIC_DATE: the configured exact date, ignoring the period

Mode/field mismatches are a ConfigurationError. Validate catches them at
service creation/update time; the checks here are a defensive backstop,
generation is never the first place a bad definition surfaces.
*/
package schedule

// EmissionWindow is the resolved emission of one period. Start == End
// for FIXED_DAY and SPECIFIC_DATE; DATE_RANGE yields a real window.
type EmissionWindow struct {
	Start Date
	End   Date
}

// ResolveEmission computes the emission window for a period from the
// service's emission mode and mode-specific fields.
func ResolveEmission(period Period, svc Service) (EmissionWindow, error) {
	switch svc.EmissionMode {
	case EmissionFixedDay:
		if svc.EmissionDay == nil {
			return EmissionWindow{}, configErr("emissionDay", "required for FIXED_DAY emission mode")
		}
		d := period.Start.WithDayClamped(*svc.EmissionDay)
		return EmissionWindow{Start: d, End: d}, nil

	case EmissionDateRange:
		if svc.EmissionStartDay == nil || svc.EmissionEndDay == nil {
			return EmissionWindow{}, configErr("emissionStartDay", "start and end days required for DATE_RANGE emission mode")
		}
		return EmissionWindow{
			Start: period.Start.WithDayClamped(*svc.EmissionStartDay),
			End:   period.Start.WithDayClamped(*svc.EmissionEndDay),
		}, nil

	case EmissionSpecificDate:
		if svc.EmissionExactDate == nil {
			return EmissionWindow{}, configErr("emissionExactDate", "required for SPECIFIC_DATE emission mode")
		}
		d := *svc.EmissionExactDate
		return EmissionWindow{Start: d, End: d}, nil

	default:
		return EmissionWindow{}, configErr("emissionMode", "unknown emission mode "+string(svc.EmissionMode))
	}
}
