// Package namer builds target library paths:
//
//	TV:    <Show> (<Year>)/Season <SS>/<Show> - S<SS>E<EE>[-E<EE>] - <Title>[ & <Title>].<ext>
//	Movie: <Title> (<Year>)/<Title> (<Year>).<ext>
//	Music: <Artist>/<Album> (<Year>)/Track<NN> - <Title>.<ext>
//
// All components are NFC-normalized and stripped of reserved filesystem
// characters. Episode ranges are contiguous.
package namer
