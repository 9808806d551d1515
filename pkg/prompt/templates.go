package prompt

const baseTemplate = `You are an expert architectural photo editor. EDIT the first image provided; do not regenerate it from scratch.
Preserve the original composition, camera angle, framing, and the structure of every building exactly.
The image may contain solid black padding bars that were added only for formatting. Ignore them and never extend content into them.
{{- if .Prompt}}

Requested change: {{.Prompt}}
{{- end}}`

const sketchTemplate = `SKETCH CONSTRAINT: The first image contains hand-drawn sketch marks.
Apply changes ONLY inside the regions marked by the sketch. Everything outside the marked regions must remain unchanged.
{{- if .Prompt}}
Interpret "{{.Prompt}}" strictly as what to do within the marked regions, and nowhere else.
{{- end}}
Remove the sketch marks themselves from the final image.`

const productTemplate = `PRODUCT INTEGRATION: The {{.Ordinal}} image provided shows a specific product or architectural element.
Integrate this exact element into the scene photorealistically. Match the scene's scale, lighting direction, shadows, and perspective.
Do not change the element's design, shape, materials, or colors.`

const backgroundTemplate = `BACKGROUND REPLACEMENT: The {{.Ordinal}} image provided is the new environment. Follow these steps in order:
1. Isolate the main subject (the building and its immediate surroundings) from the first image.
2. Analyze the new environment's lighting direction, color temperature, and atmosphere.
3. Re-light the subject to match the new environment and cast shadows consistent with its light sources.
4. Adjust the subject's scale and perspective so it sits naturally in the new environment.
5. Blend the edges so no halo, seam, or cut-out outline remains.
{{- if .Prompt}}
Apply "{{.Prompt}}" only as a final stylistic step after the composition is complete.
{{- end}}`

const outputTemplate = `OUTPUT: Return exactly one photorealistic image. Do not add any text, captions, watermarks, or logos.`

const rotationTemplate = `You are an expert architectural visualizer. Re-render the first image provided as a photorealistic photograph taken from a camera position rotated exactly 45 degrees to the {{.Direction}} around the building.
Treat the input image as ground truth: if it already shows a rotated view, rotate a further 45 degrees from that view.
The architecture, materials, and colors are immutable. Do not redesign anything.
Surfaces that become newly visible must be extrapolated realistically as a logical continuation of the existing patterns, materials, and structure.
Preserve the lighting, weather, time of day, and landscaping.
The image may contain solid black padding bars that were added only for formatting. Ignore them.
OUTPUT: Return exactly one clean photorealistic image with no text, captions, watermarks, or logos.`
